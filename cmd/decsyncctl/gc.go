package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crdtsync/decsync"
	"github.com/crdtsync/decsync/storage"
)

func newGCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gc <dir> <syncType> <appId> <version>",
		Short: "Delete one app's writer subtree for the given storage version",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, syncType, appID := args[0], args[1], args[2]

			version, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("parsing version %q: %w", args[3], err)
			}

			fsys := storage.NewLocalFileSystem(dir)

			if err := decsync.DeleteAppData(cmd.Context(), fsys, syncType, flagCollection, appID, version, decsync.DefaultVersion); err != nil {
				return fmt.Errorf("deleting app data: %w", err)
			}

			return nil
		},
	}
}
