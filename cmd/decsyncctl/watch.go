package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/crdtsync/decsync"
	"github.com/crdtsync/decsync/storage"
)

func newWatchCmd() *cobra.Command {
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir> <syncType> <appId>",
		Short: "Run ExecuteAllNewEntries whenever the collection subtree changes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := cliContextFrom(cmd.Context())

			dir, syncType, appID := args[0], args[1], args[2]

			localFsys := storage.NewLocalFileSystem(cc.Cfg.Sync.LocalDir)
			decsyncFsys := storage.NewLocalFileSystem(dir)

			d, err := decsync.New[struct{}](cmd.Context(), decsync.Config[struct{}]{
				DecsyncFS:          decsyncFsys,
				LocalFS:            localFsys,
				SyncType:           syncType,
				Collection:         flagCollection,
				OwnAppID:           appID,
				Logger:             cc.Logger,
				LegacyWindowMonths: cc.Cfg.Sync.LegacyWindowMonths,
			})
			if err != nil {
				return fmt.Errorf("attaching to decsync directory: %w", err)
			}
			defer d.Close(context.Background())

			d.AddListener(nil, func(path []string, entry decsync.Entry, _ struct{}) {
				fmt.Printf("%s\t%v\t%s=%v\n", entry.Datetime, path, entry.Key, entry.Value)
			})

			if err := d.InitStoredEntries(cmd.Context()); err != nil {
				return fmt.Errorf("initializing stored entries: %w", err)
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("creating filesystem watcher: %w", err)
			}
			defer watcher.Close()

			if err := addWatchRecursive(watcher, decsyncFsys.NativePath(nil)); err != nil {
				cc.Logger.Warn("decsyncctl: recursive watch setup failed, relying on poll interval alone", "error", err)
			}

			return runWatchLoop(cmd.Context(), d, watcher, pollInterval, cc)
		},
	}

	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 30*time.Second,
		"safety-net polling interval, in case filesystem events are missed")

	return cmd
}

// addWatchRecursive registers every existing subdirectory of root with
// watcher, since fsnotify only watches the directories it is explicitly
// given, not their descendants.
func addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}

			return err
		}

		if !d.IsDir() {
			return nil
		}

		return watcher.Add(path)
	})
}

// runWatchLoop mirrors the teacher's LocalObserver belt-and-suspenders
// pattern: react to filesystem events as they arrive, but also re-scan on a
// fixed interval in case an event was coalesced or dropped by the OS.
func runWatchLoop(ctx context.Context, d *decsync.Decsync[struct{}], watcher *fsnotify.Watcher, pollInterval time.Duration, cc *CLIContext) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			cc.Logger.Debug("decsyncctl: filesystem event", "name", event.Name, "op", event.Op.String())

			if err := d.ExecuteAllNewEntries(ctx, struct{}{}); err != nil {
				cc.Logger.Error("decsyncctl: executing new entries after event failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			cc.Logger.Error("decsyncctl: watcher error", "error", err)

		case <-ticker.C:
			if err := d.ExecuteAllNewEntries(ctx, struct{}{}); err != nil {
				cc.Logger.Error("decsyncctl: polling executing new entries failed", "error", err)
			}
		}
	}
}
