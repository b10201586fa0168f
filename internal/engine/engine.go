// Package engine defines the contract shared by the V1 and V2 storage
// engines and the listener/tie-break machinery the façade drives them
// through. Both concrete engines (internal/v1, internal/v2) implement
// Engine[E]; the façade in the root package holds whichever one is active
// and swaps it during an online version upgrade.
package engine

import (
	"context"

	"github.com/crdtsync/decsync/model"
)

// The type parameter E below is the host-supplied "extra" value threaded
// through listener callbacks — the one source-language generic in the whole
// design (design note in SPEC_FULL.md §9). It is instantiated as whatever
// type the caller's Decsync[E] was parameterized with.

// Listener is a registered callback matching any path having Subpath as a
// prefix. Invoke receives every surviving entry for one concrete path in
// one delivery batch (a single listener registered via AddListener still
// goes through this shape — the façade adapts a single-entry callback into
// one that loops over entries and ANDs the per-entry results together).
// Invoke returns false to ask for redelivery of the whole batch on the next
// ExecuteAllNewEntries call; the underlying reader cursor is not advanced
// past a failed batch.
type Listener[E any] struct {
	Subpath []string
	Invoke  func(path []string, entries []model.Entry, extra E) bool
}

// Matches reports whether path has l.Subpath as a prefix.
func (l Listener[E]) Matches(path []string) bool {
	if len(path) < len(l.Subpath) {
		return false
	}

	for i, seg := range l.Subpath {
		if path[i] != seg {
			return false
		}
	}

	return true
}

// OptExtra represents the init-mode "no real extra value" tag described in
// design note 9: initStoredEntries drives the same code path as
// ExecuteAllNewEntries but listeners must never actually fire, so there is
// no extra value to synthesize. Some = true carries a real extra value; Some =
// false means "running in init mode, do not invoke user listeners".
type OptExtra[E any] struct {
	Value E
	Some  bool
}

// Some wraps a real extra value for a normal ExecuteAllNewEntries call.
func Some[E any](v E) OptExtra[E] { return OptExtra[E]{Value: v, Some: true} }

// None is the init-mode sentinel used by initStoredEntries.
func None[E any]() OptExtra[E] { return OptExtra[E]{} }

// Engine is the contract a storage-format engine (V1 or V2) exposes to the
// façade. All methods are safe to call only from one goroutine at a time
// per the module's single-threaded-per-instance scheduling model (SPEC_FULL
// §5); the façade is responsible for that serialization.
type Engine[E any] interface {
	// Version reports which on-disk format this engine speaks, 1 or 2.
	Version() int

	// SetEntriesForPath appends entries to this app's own log and updates
	// its own stored-entries snapshot.
	SetEntriesForPath(ctx context.Context, path []string, entries []model.Entry) error

	// ExecuteAllNewEntries scans every peer's (including this app's own)
	// log for entries written since this reader last looked, merges them
	// against the current stored-entries view, and dispatches surviving
	// entries to matching listeners. extra carries the host value threaded
	// through listener callbacks, or None[E]() to run in side-effect-free
	// init mode (listeners are never invoked; cursors and stored-entries
	// still advance).
	ExecuteAllNewEntries(ctx context.Context, listeners []Listener[E], extra OptExtra[E]) error

	// ExecuteStoredEntriesForPathPrefix replays the current merged value of
	// every (path, key) under prefix through matching listeners, filtered
	// to keys if non-nil. Used by the façade's ExecuteStored* family and by
	// the maintenance upgrade path to seed a new engine from an old one.
	ExecuteStoredEntriesForPathPrefix(
		ctx context.Context,
		prefix []string,
		listeners []Listener[E],
		extra E,
		keys []any,
	) error

	// OwnSubtreePath returns the path (relative to the sync-type/collection
	// root) this engine's own app writes under, so the façade can delete it
	// during a version upgrade's background cleanup.
	OwnSubtreePath() []string
}
