package v1

import (
	"context"
	"fmt"

	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/internal/jsonline"
	"github.com/crdtsync/decsync/model"
	"github.com/crdtsync/decsync/pathcodec"
)

// SetEntriesForPath appends entries to new-entries/<ownAppId>/<path> and
// folds each into the own stored-entries/<ownAppId>/<path> snapshot,
// replacing a key's line only if the new entry's datetime is strictly
// greater than the one currently stored.
func (e *Engine[E]) SetEntriesForPath(ctx context.Context, path []string, entries []model.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	encodedPath := pathcodec.EncodePath(path)

	newEntriesFile := append(append([]string{}, e.newEntriesRoot()...), e.ownAppID)
	newEntriesFile = append(newEntriesFile, encodedPath...)

	data, err := jsonline.RenderAll(entries)
	if err != nil {
		return fmt.Errorf("v1: rendering entries for %v: %w", path, err)
	}

	if err := e.fsys.Append(ctx, newEntriesFile, data); err != nil {
		return fmt.Errorf("v1: appending new entries for %v: %w", path, err)
	}

	storedFile := append(append([]string{}, e.storedEntriesRoot()...), e.ownAppID)
	storedFile = append(storedFile, encodedPath...)

	if err := e.mergeIntoStoredEntries(ctx, storedFile, path, entries); err != nil {
		return fmt.Errorf("v1: updating stored entries for %v: %w", path, err)
	}

	return nil
}

// mergeIntoStoredEntries loads the existing per-key snapshot at storedFile,
// replaces any key whose incoming entry has a strictly greater datetime
// (or has no existing line at all), and rewrites the file whole.
func (e *Engine[E]) mergeIntoStoredEntries(ctx context.Context, storedFile []string, path []string, entries []model.Entry) error {
	existing, err := e.loadStoredEntries(ctx, storedFile, path)
	if err != nil {
		return err
	}

	for _, ent := range entries {
		k, err := engine.CanonicalKey(ent.Key)
		if err != nil {
			e.logger.Warn("skipping entry with unencodable key", "error", err)
			continue
		}

		if cur, ok := existing[k]; !ok || ent.Datetime > cur.Datetime {
			existing[k] = ent
		}
	}

	return e.writeStoredEntries(ctx, storedFile, existing)
}
