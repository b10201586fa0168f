// Package v1 implements the original DecSync on-disk layout: one append-
// only file per (writer appId, path) under new-entries, a merged per-writer
// snapshot under stored-entries, and a reader cursor file per (reader,
// writer) pair. See SPEC_FULL.md §4.3.
package v1

import (
	"log/slog"

	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/storage"
)

// Engine implements engine.Engine[E] against the V1 layout.
type Engine[E any] struct {
	fsys     storage.FileSystem
	root     []string // sub = D/S or D/S/C
	ownAppID string
	logger   *slog.Logger
}

// New returns a V1 engine rooted at root (the sync-type/collection
// subtree), writing as ownAppID.
func New[E any](fsys storage.FileSystem, root []string, ownAppID string, logger *slog.Logger) *Engine[E] {
	return &Engine[E]{fsys: fsys, root: root, ownAppID: ownAppID, logger: logger}
}

func (e *Engine[E]) Version() int { return 1 }

func (e *Engine[E]) OwnSubtreePath() []string {
	return append(append([]string{}, e.root...), "new-entries", e.ownAppID)
}

func (e *Engine[E]) newEntriesRoot() []string {
	return append(append([]string{}, e.root...), "new-entries")
}

func (e *Engine[E]) storedEntriesRoot() []string {
	return append(append([]string{}, e.root...), "stored-entries")
}

func (e *Engine[E]) readRoot() []string {
	return append(append([]string{}, e.root...), "read")
}

var _ engine.Engine[any] = (*Engine[any])(nil)
