// Package fswalk recursively enumerates the per-path files stored under a
// directory, where a "path" is represented as nested directory components
// (one pathcodec-encoded name per path segment) terminating in a file for
// the final segment. Both the V1 engine's new-entries/stored-entries trees
// and the V2 engine's per-writer stored-entries tree use this shape.
package fswalk

import (
	"context"

	"github.com/crdtsync/decsync/storage"
)

// EncodedPaths walks base and returns the encoded path-segment slices
// (relative to base) of every file found, however deeply nested. Order is
// not guaranteed to be stable across calls beyond what the underlying
// FileSystem.ListDirectories/ListFiles already sort.
func EncodedPaths(ctx context.Context, fsys storage.FileSystem, base []string) ([][]string, error) {
	var out [][]string

	if err := walk(ctx, fsys, base, nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func walk(ctx context.Context, fsys storage.FileSystem, base []string, prefix []string, out *[][]string) error {
	here := append(append([]string{}, base...), prefix...)

	files, err := fsys.ListFiles(ctx, here)
	if err != nil {
		return err
	}

	for _, f := range files {
		p := append(append([]string{}, prefix...), f)
		*out = append(*out, p)
	}

	dirs, err := fsys.ListDirectories(ctx, here)
	if err != nil {
		return err
	}

	for _, d := range dirs {
		if err := walk(ctx, fsys, base, append(append([]string{}, prefix...), d), out); err != nil {
			return err
		}
	}

	return nil
}
