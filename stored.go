package decsync

import "context"

// ExecuteStoredEntry replays the current merged value of one (path, key)
// cell through matching listeners, if any value is currently stored there.
func (d *Decsync[E]) ExecuteStoredEntry(ctx context.Context, path []string, key any, extra E) error {
	return d.ExecuteStoredEntriesForPathExact(ctx, path, extra, []any{key})
}

// ExecuteStoredEntries replays the current merged value of a batch of
// (path, key) cells, grouped internally by path.
func (d *Decsync[E]) ExecuteStoredEntries(ctx context.Context, entries []StoredEntry, extra E) error {
	for _, g := range groupStoredByPath(entries) {
		if err := d.ExecuteStoredEntriesForPathExact(ctx, g.path, extra, g.keys); err != nil {
			return err
		}
	}

	return nil
}

// ExecuteStoredEntriesForPathExact replays the current merged value of
// every key at exactly path (not at paths nested under it), filtered to
// keys if non-nil; nil means "all keys present at that path".
func (d *Decsync[E]) ExecuteStoredEntriesForPathExact(ctx context.Context, path []string, extra E, keys []any) error {
	eng, err := d.currentEngine()
	if err != nil {
		return err
	}

	listeners := exactPathListeners(path, d.snapshotListeners())

	return eng.ExecuteStoredEntriesForPathPrefix(ctx, path, listeners, extra, keys)
}

// ExecuteStoredEntriesForPathPrefix replays the current merged value of
// every (path, key) cell at prefix or any path nested under it, filtered to
// keys if non-nil.
func (d *Decsync[E]) ExecuteStoredEntriesForPathPrefix(ctx context.Context, prefix []string, extra E, keys []any) error {
	eng, err := d.currentEngine()
	if err != nil {
		return err
	}

	return eng.ExecuteStoredEntriesForPathPrefix(ctx, prefix, d.snapshotListeners(), extra, keys)
}
