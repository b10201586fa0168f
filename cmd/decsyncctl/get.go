package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crdtsync/decsync"
	"github.com/crdtsync/decsync/storage"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <dir> <syncType> <appId> <path...> <key>",
		Short: "Print the merged value stored at one (path, key) cell",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := cliContextFrom(cmd.Context())

			dir, syncType, appID := args[0], args[1], args[2]
			rest := args[3:]
			path, key := rest[:len(rest)-1], rest[len(rest)-1]

			d, err := decsync.New[struct{}](cmd.Context(), decsync.Config[struct{}]{
				DecsyncFS:          storage.NewLocalFileSystem(dir),
				LocalFS:            storage.NewLocalFileSystem(cc.Cfg.Sync.LocalDir),
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

			var found *decsync.Entry

			d.AddListener(path, func(_ []string, entry decsync.Entry, _ struct{}) {
				if entry.Key == key {
					e := entry
					found = &e
				}
			})

			if err := d.ExecuteStoredEntry(cmd.Context(), path, key, struct{}{}); err != nil {
				return fmt.Errorf("querying stored entry: %w", err)
			}

			if found == nil {
				fmt.Println("null")
				return nil
			}

			val, err := json.Marshal(found.Value)
			if err != nil {
				return fmt.Errorf("encoding value: %w", err)
			}

			fmt.Println(string(val))

			return nil
		},
	}
}
