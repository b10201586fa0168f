package decsync

import (
	"context"

	"github.com/crdtsync/decsync/internal/engine"
)

// ExecuteAllNewEntries scans every peer's log for entries written since
// this reader last looked, merges them against the current stored-entries
// view, and dispatches surviving entries to registered listeners. It also
// runs the maintenance pass described in spec.md §4.5 (last-active and
// supported-version bookkeeping, and the online V1→V2 upgrade) unless a
// prior call is still in init mode (InitStoredEntries), in which case this
// is a no-op — the re-entrancy guard of design note 9.
func (d *Decsync[E]) ExecuteAllNewEntries(ctx context.Context, extra E) error {
	return d.executeAllNewEntries(ctx, extra, false)
}

// ExecuteAllNewEntriesNoMaintenance is ExecuteAllNewEntries with maintenance
// (§4.5) skipped: no version-upgrade check, no last-active/supported-version
// republish. Useful for callers that want tight control over when those
// side effects happen, e.g. batch-importing history.
func (d *Decsync[E]) ExecuteAllNewEntriesNoMaintenance(ctx context.Context, extra E) error {
	return d.executeAllNewEntries(ctx, extra, true)
}

func (d *Decsync[E]) executeAllNewEntries(ctx context.Context, extra E, disableMaintenance bool) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return errClosed
	}

	if d.isInInit {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	if !disableMaintenance {
		if err := d.runMaintenance(ctx, extra); err != nil {
			return err
		}
	}

	eng, err := d.currentEngine()
	if err != nil {
		return err
	}

	return eng.ExecuteAllNewEntries(ctx, d.snapshotListeners(), engine.Some(extra))
}

// InitStoredEntries advances every reader cursor and populates
// stored-entries exactly as ExecuteAllNewEntries would, but never invokes a
// listener — intended to run once right after a listener is installed, so
// that an app doesn't replay its own still-unread history as if it were
// new (property P6). Re-entrant calls to ExecuteAllNewEntries made from
// within a listener while this is running are no-ops.
func (d *Decsync[E]) InitStoredEntries(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return errClosed
	}

	d.isInInit = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.isInInit = false
		d.mu.Unlock()
	}()

	eng, err := d.currentEngine()
	if err != nil {
		return err
	}

	return eng.ExecuteAllNewEntries(ctx, d.snapshotListeners(), engine.None[E]())
}
