package decsync

import "context"

// SetEntry writes a single (path, key, value), stamping it with the
// current datetime.
func (d *Decsync[E]) SetEntry(ctx context.Context, path []string, key, value any) error {
	return d.SetEntriesForPath(ctx, path, []Entry{{Datetime: currentDatetime(), Key: key, Value: value}})
}

// SetEntries writes a batch of entries, which may span multiple paths and
// already carry their own datetimes (the upgrade path in maintenance.go
// uses the same per-path grouping to preserve history when replaying into a
// new engine).
// Observably equivalent to calling SetEntriesForPath once per distinct
// path in order.
func (d *Decsync[E]) SetEntries(ctx context.Context, entries []EntryWithPath) error {
	for _, g := range groupByPath(entries) {
		if err := d.SetEntriesForPath(ctx, g.path, g.entries); err != nil {
			return err
		}
	}

	return nil
}

// SetEntriesForPath writes every entry in entries at path.
func (d *Decsync[E]) SetEntriesForPath(ctx context.Context, path []string, entries []Entry) error {
	eng, err := d.currentEngine()
	if err != nil {
		return err
	}

	return eng.SetEntriesForPath(ctx, path, entries)
}
