package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crdtsync/decsync"
	"github.com/crdtsync/decsync/storage"
)

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <dir> <syncType> <appId> <path...> <key> <jsonValue>",
		Short: "Write a single entry, stamped with the current time",
		Args:  cobra.MinimumNArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := cliContextFrom(cmd.Context())

			dir, syncType, appID := args[0], args[1], args[2]
			rest := args[3:]
			path, key, rawValue := rest[:len(rest)-2], rest[len(rest)-2], rest[len(rest)-1]

			var value any
			if err := json.Unmarshal([]byte(rawValue), &value); err != nil {
				return fmt.Errorf("parsing value as JSON: %w", err)
			}

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

			if err := d.SetEntry(cmd.Context(), path, key, value); err != nil {
				return fmt.Errorf("setting entry: %w", err)
			}

			return nil
		},
	}
}
