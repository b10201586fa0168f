// Package v2 implements the newer DecSync on-disk layout: one append log
// per writer (instead of one file per writer per path), a per-writer
// sequence cursor per reader, and a per-reader stored-entries snapshot tree
// mirroring V1's. See SPEC_FULL.md §4.4.
package v2

import (
	"log/slog"

	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/storage"
)

const logShard = "0" // canonical single ordered byte stream; the engine never shards further.

// Engine implements engine.Engine[E] against the V2 layout.
type Engine[E any] struct {
	fsys     storage.FileSystem
	root     []string // sub = D/S or D/S/C
	ownAppID string
	logger   *slog.Logger
}

// New returns a V2 engine rooted at root, writing as ownAppID.
func New[E any](fsys storage.FileSystem, root []string, ownAppID string, logger *slog.Logger) *Engine[E] {
	return &Engine[E]{fsys: fsys, root: root, ownAppID: ownAppID, logger: logger}
}

func (e *Engine[E]) Version() int { return 2 }

func (e *Engine[E]) OwnSubtreePath() []string {
	return e.writerRoot(e.ownAppID)
}

func (e *Engine[E]) v2Root() []string {
	return append(append([]string{}, e.root...), "v2")
}

func (e *Engine[E]) writerRoot(writerAppID string) []string {
	return append(e.v2Root(), writerAppID)
}

func (e *Engine[E]) entriesFile(writerAppID string) []string {
	return append(e.writerRoot(writerAppID), "entries", logShard)
}

func (e *Engine[E]) sequenceFile(writerAppID, readerAppID string) []string {
	return append(e.writerRoot(writerAppID), "sequences", readerAppID)
}

func (e *Engine[E]) storedEntriesRoot(ownerAppID string) []string {
	return append(e.writerRoot(ownerAppID), "stored-entries")
}

var _ engine.Engine[any] = (*Engine[any])(nil)
