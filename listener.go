package decsync

import (
	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/model"
)

// Callback is invoked once per surviving entry at a path matched by the
// listener's subpath. It cannot ask for redelivery; use
// SuccessCallback for that.
type Callback[E any] func(path []string, entry Entry, extra E)

// SuccessCallback is invoked once per surviving entry. Returning false asks
// for redelivery on the next ExecuteAllNewEntries call: the whole batch the
// entry arrived in is offered again, and the reader cursor is not advanced
// until one delivery of that batch has every entry's callback return true.
type SuccessCallback[E any] func(path []string, entry Entry, extra E) bool

// MultiCallback receives every surviving entry for one path in a single
// delivery. Returning false re-delivers the whole batch.
type MultiCallback[E any] func(path []string, entries []Entry, extra E) bool

// AddListener registers cb for every path having subpath as a prefix.
// Equivalent to AddListenerWithSuccess with a callback that always
// succeeds.
func (d *Decsync[E]) AddListener(subpath []string, cb Callback[E]) {
	d.AddListenerWithSuccess(subpath, func(path []string, entry Entry, extra E) bool {
		cb(path, entry, extra)
		return true
	})
}

// AddListenerWithSuccess registers cb for every path having subpath as a
// prefix. cb is invoked once per entry in a delivered batch; the batch as a
// whole is considered delivered only when every entry's callback returns
// true in the same delivery. Otherwise the whole batch, including entries
// whose callback returned true, is redelivered.
func (d *Decsync[E]) AddListenerWithSuccess(subpath []string, cb SuccessCallback[E]) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners = append(d.listeners, engine.Listener[E]{
		Subpath: subpath,
		Invoke: func(path []string, entries []model.Entry, extra E) bool {
			ok := true

			for _, ent := range entries {
				if !cb(path, ent, extra) {
					ok = false
				}
			}

			return ok
		},
	})
}

// AddMultiListener registers cb for every path having subpath as a prefix.
// Unlike AddListener, cb receives the whole batch of surviving entries for
// one path in one call; a false return re-delivers the entire batch.
func (d *Decsync[E]) AddMultiListener(subpath []string, cb MultiCallback[E]) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners = append(d.listeners, engine.Listener[E]{
		Subpath: subpath,
		Invoke: func(path []string, entries []model.Entry, extra E) bool {
			return cb(path, entries, extra)
		},
	})
}

// exactPathListeners wraps listeners so they only fire for entries at
// exactly target, not at paths nested under it — used by
// ExecuteStoredEntriesForPathExact, which must not deliver a listener
// registered for a shallower prefix when replaying one specific path.
func exactPathListeners[E any](target []string, listeners []engine.Listener[E]) []engine.Listener[E] {
	wrapped := make([]engine.Listener[E], len(listeners))

	for i, l := range listeners {
		l := l
		wrapped[i] = engine.Listener[E]{
			Subpath: target,
			Invoke: func(path []string, entries []model.Entry, extra E) bool {
				if !pathEqual(path, target) || !l.Matches(path) {
					return true
				}

				return l.Invoke(path, entries, extra)
			},
		}
	}

	return wrapped
}
