package v2

import (
	"context"
	"errors"

	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/internal/jsonline"
	"github.com/crdtsync/decsync/model"
	"github.com/crdtsync/decsync/pathcodec"
	"github.com/crdtsync/decsync/storage"
)

func (e *Engine[E]) storedFile(ownerAppID string, encodedPath []string) []string {
	return append(e.storedEntriesRoot(ownerAppID), encodedPath...)
}

// loadStoredEntries reads ownerAppID's stored-entries snapshot for path
// (possibly absent), as a map keyed by engine.CanonicalKey.
func (e *Engine[E]) loadStoredEntries(ctx context.Context, ownerAppID string, path []string, encodedPath []string) (map[string]model.Entry, error) {
	out := make(map[string]model.Entry)

	data, err := e.fsys.Read(ctx, e.storedFile(ownerAppID, encodedPath))
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return out, nil
		}

		return nil, err
	}

	for _, ent := range jsonline.ParseAll[model.Entry](data, path, e.logger) {
		k, err := engine.CanonicalKey(ent.Key)
		if err != nil {
			continue
		}

		out[k] = ent
	}

	return out, nil
}

func (e *Engine[E]) writeStoredEntries(ctx context.Context, ownerAppID string, encodedPath []string, byKey map[string]model.Entry) error {
	entries := make([]model.Entry, 0, len(byKey))
	for _, ent := range byKey {
		entries = append(entries, ent)
	}

	data, err := jsonline.RenderAll(entries)
	if err != nil {
		return err
	}

	return e.fsys.Write(ctx, e.storedFile(ownerAppID, encodedPath), data)
}

func (e *Engine[E]) mergeIntoStoredEntries(ctx context.Context, ownerAppID string, path []string, entries []model.Entry) error {
	encodedPath := pathcodec.EncodePath(path)

	existing, err := e.loadStoredEntries(ctx, ownerAppID, path, encodedPath)
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

	return e.writeStoredEntries(ctx, ownerAppID, encodedPath, existing)
}
