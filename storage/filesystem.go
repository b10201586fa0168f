// Package storage defines the filesystem capability the DecSync core
// depends on (abstract directories/files/bytes), plus a local-disk
// implementation. Hosts that want a different transport — a different
// cloud drive, an in-memory store for tests — implement FileSystem
// themselves; the core never imports os directly.
package storage

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Read and ReadFrom when the given path has no
// file. Node-kind-absent is reported the same way through NodeKind.
var ErrNotExist = errors.New("storage: no such file")

// NodeKind classifies what, if anything, lives at a path.
type NodeKind int

const (
	Absent NodeKind = iota
	File
	Directory
)

// FileSystem is the abstract, ordered, byte-oriented hierarchical store the
// DecSync core reads and writes. Paths are slices of path components (never
// platform path strings) so implementations are free to map them onto
// whatever underlying namespace they like.
//
// Implementations must guarantee that a single Write or Append call is
// atomic and that two Appends to the same file never interleave their
// bytes — but since distinct writers in the DecSync protocol never share a
// file (rule I3 in the on-disk data model), this only has to hold for
// process-local concurrency, which callers serialize themselves.
type FileSystem interface {
	// Read returns the full contents of path, or ErrNotExist if absent.
	Read(ctx context.Context, path []string) ([]byte, error)
	// Write creates or replaces path with data.
	Write(ctx context.Context, path []string, data []byte) error
	// Append creates path if absent, then appends data atomically.
	Append(ctx context.Context, path []string, data []byte) error
	// ReadFrom returns the bytes of path from the given offset onward,
	// along with the new offset (offset + len(bytes)) so the caller can
	// persist its cursor. ErrNotExist if path is absent.
	ReadFrom(ctx context.Context, path []string, offset int64) ([]byte, int64, error)
	// ListDirectories lists the immediate child directory names of path.
	// Returns an empty slice (not an error) if path is absent or has no
	// subdirectories.
	ListDirectories(ctx context.Context, path []string) ([]string, error)
	// ListFiles lists the immediate child file names of path.
	ListFiles(ctx context.Context, path []string) ([]string, error)
	// NodeKind reports what kind of node, if any, lives at path.
	NodeKind(ctx context.Context, path []string) (NodeKind, error)
	// Delete removes path, recursively if it is a directory. Deleting an
	// absent path is not an error.
	Delete(ctx context.Context, path []string) error
	// ResetCache hints that any host-side caching (directory listings in
	// particular) should be dropped, because the caller is about to read
	// state that may have changed out from under a cache built earlier —
	// notably around a V1/V2 engine swap during maintenance.
	ResetCache()
}
