package v2

import (
	"context"
	"fmt"

	"github.com/crdtsync/decsync/internal/jsonline"
	"github.com/crdtsync/decsync/model"
)

// SetEntriesForPath appends entries to this app's own log (tagging each
// with path) and folds them into this app's own stored-entries snapshot.
func (e *Engine[E]) SetEntriesForPath(ctx context.Context, path []string, entries []model.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tagged := make([]model.EntryWithPath, len(entries))
	for i, ent := range entries {
		tagged[i] = model.EntryWithPath{Path: path, Entry: ent}
	}

	data, err := jsonline.RenderAll(tagged)
	if err != nil {
		return fmt.Errorf("v2: rendering entries for %v: %w", path, err)
	}

	if err := e.fsys.Append(ctx, e.entriesFile(e.ownAppID), data); err != nil {
		return fmt.Errorf("v2: appending entries for %v: %w", path, err)
	}

	if err := e.mergeIntoStoredEntries(ctx, e.ownAppID, path, entries); err != nil {
		return fmt.Errorf("v2: updating stored entries for %v: %w", path, err)
	}

	return nil
}
