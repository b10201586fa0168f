package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crdtsync/decsync"
	"github.com/crdtsync/decsync/internal/clicfg"
	"github.com/crdtsync/decsync/internal/localcache"
	"github.com/crdtsync/decsync/storage"
)

const activityDBFileName = "activity.sqlite3"

func newAppsCmd() *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "apps <dir> <syncType>",
		Short: "List every known writer app and its published activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := cliContextFrom(cmd.Context())

			fsys := storage.NewLocalFileSystem(args[0])

			cache, err := openActivityCache(cmd.Context(), cc.Cfg, cc.Logger)
			if err != nil {
				return err
			}
			defer cache.Close()

			apps, err := decsync.GetActiveApps(cmd.Context(), fsys, args[1], flagCollection, cache, cc.Logger)
			if err != nil {
				return fmt.Errorf("getting active apps: %w", err)
			}

			for _, a := range apps {
				sv := "-"
				if a.SupportedVersion != nil {
					sv = fmt.Sprintf("%d", *a.SupportedVersion)
				}

				fmt.Printf("%s\tversion=%d\tsupported-version=%s\tlast-active=%s\n", a.AppID, a.Version, sv, a.LastActive)
			}

			if !history {
				return nil
			}

			obs, err := cache.History(cmd.Context(), args[1], flagCollection)
			if err != nil {
				return fmt.Errorf("loading activity history: %w", err)
			}

			fmt.Println("--- history ---")

			for _, o := range obs {
				last := ""
				if o.LastActive != nil {
					last = *o.LastActive
				}

				sv := "-"
				if o.SupportedVersion != nil {
					sv = fmt.Sprintf("%d", *o.SupportedVersion)
				}

				fmt.Printf("%s\t%s\tversion=%d\tsupported-version=%s\tlast-active=%s\n", o.ObservedAt, o.AppID, o.Version, sv, last)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&history, "history", false, "also dump the local secondary index")

	return cmd
}

// openActivityCache opens the local secondary index database under cfg's
// configured local directory, creating the directory if absent.
func openActivityCache(ctx context.Context, cfg *clicfg.Config, logger *slog.Logger) (*localcache.Store, error) {
	dir := cfg.Sync.LocalDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating local data directory %s: %w", dir, err)
	}

	return localcache.Open(ctx, filepath.Join(dir, activityDBFileName), logger)
}
