package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/crdtsync/decsync"
	"github.com/crdtsync/decsync/storage"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <dir> <syncType>",
		Short: "Print every key ever written to the info path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := cliContextFrom(cmd.Context())

			fsys := storage.NewLocalFileSystem(args[0])

			info, err := decsync.GetStaticInfo(cmd.Context(), fsys, args[1], flagCollection, cc.Logger)
			if err != nil {
				return fmt.Errorf("getting static info: %w", err)
			}

			keys := make([]string, 0, len(info))
			for k := range info {
				keys = append(keys, k)
			}

			sort.Strings(keys)

			for _, k := range keys {
				e := info[k]

				val, err := json.Marshal(e.Value)
				if err != nil {
					return fmt.Errorf("encoding value for key %q: %w", k, err)
				}

				fmt.Printf("%s\t%s\t%s\n", e.Datetime, k, val)
			}

			return nil
		},
	}
}
