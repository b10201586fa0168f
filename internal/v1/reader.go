package v1

import (
	"context"
	"fmt"

	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/internal/fswalk"
	"github.com/crdtsync/decsync/internal/jsonline"
	"github.com/crdtsync/decsync/model"
	"github.com/crdtsync/decsync/pathcodec"
)

const (
	infoPathSegment        = "info"
	lastActiveKeyPrefix    = "last-active-"
	supportedVersionPrefix = "supported-version-"
)

// ExecuteAllNewEntries scans every writer's new-entries tree (including the
// own app's, so self-writes committed between two calls are observed like
// any other writer's) and dispatches surviving entries per path.
func (e *Engine[E]) ExecuteAllNewEntries(ctx context.Context, listeners []engine.Listener[E], extra engine.OptExtra[E]) error {
	writerAppIDs, err := e.fsys.ListDirectories(ctx, e.newEntriesRoot())
	if err != nil {
		return fmt.Errorf("v1: listing new-entries writers: %w", err)
	}

	for _, writerAppID := range writerAppIDs {
		if err := e.executeNewEntriesForWriter(ctx, writerAppID, listeners, extra); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine[E]) executeNewEntriesForWriter(ctx context.Context, writerAppID string, listeners []engine.Listener[E], extra engine.OptExtra[E]) error {
	base := append(append([]string{}, e.newEntriesRoot()...), writerAppID)

	encodedPaths, err := fswalk.EncodedPaths(ctx, e.fsys, base)
	if err != nil {
		return fmt.Errorf("v1: walking new-entries for %s: %w", writerAppID, err)
	}

	cursor, err := e.loadReadCursor(ctx, e.ownAppID, writerAppID)
	if err != nil {
		return fmt.Errorf("v1: loading read cursor for %s: %w", writerAppID, err)
	}

	cursorDirty := false

	for _, enc := range encodedPaths {
		path, err := pathcodec.DecodePath(enc)
		if err != nil {
			e.logger.Warn("skipping undecodable new-entries path", "writer", writerAppID, "error", err)
			continue
		}

		advanced, err := e.executeNewEntriesForPath(ctx, writerAppID, path, enc, cursor, listeners, extra)
		if err != nil {
			return err
		}

		if advanced {
			cursorDirty = true
		}
	}

	if cursorDirty {
		if err := e.saveReadCursor(ctx, e.ownAppID, writerAppID, cursor); err != nil {
			return fmt.Errorf("v1: saving read cursor for %s: %w", writerAppID, err)
		}
	}

	return nil
}

// executeNewEntriesForPath processes one writer's one path file. It mutates
// cursor in place when the batch is fully delivered, and reports whether it
// did so (so the caller knows whether cursor needs to be persisted).
func (e *Engine[E]) executeNewEntriesForPath(
	ctx context.Context,
	writerAppID string,
	path []string,
	encodedPath []string,
	cursor readCursor,
	listeners []engine.Listener[E],
	extra engine.OptExtra[E],
) (bool, error) {
	ck := cursorKey(encodedPath)
	offset := cursor[ck]

	file := append(append([]string{}, e.newEntriesRoot()...), writerAppID)
	file = append(file, encodedPath...)

	batch, newOffset, err := jsonline.ReadFrom[model.Entry](ctx, e.fsys, file, offset, e.logger)
	if err != nil {
		return false, fmt.Errorf("v1: reading new entries for %v from %s: %w", path, writerAppID, err)
	}

	if len(batch) == 0 {
		return false, nil
	}

	// Collapse duplicates within the batch by key, retaining the highest
	// datetime for each.
	collapsed := make(map[string]model.Entry)

	for _, ent := range batch {
		k, err := engine.CanonicalKey(ent.Key)
		if err != nil {
			e.logger.Warn("skipping entry with unencodable key", "error", err)
			continue
		}

		if cur, ok := collapsed[k]; !ok || ent.Datetime > cur.Datetime {
			collapsed[k] = ent
		}
	}

	// Compare against this reader's own current stored-entries view for
	// the path (design note 9: remote stored-entries are advisory only,
	// never consulted here).
	ownStoredFile := append(append([]string{}, e.storedEntriesRoot()...), e.ownAppID)
	ownStoredFile = append(ownStoredFile, encodedPath...)

	baseline, err := e.loadStoredEntries(ctx, ownStoredFile, path)
	if err != nil {
		return false, fmt.Errorf("v1: loading own stored entries for %v: %w", path, err)
	}

	surviving := make(map[string]model.Entry)

	for k, cand := range collapsed {
		candWinner := engine.Candidate{AppID: writerAppID, Entry: cand}

		if base, ok := baseline[k]; ok {
			baseWinner := engine.Candidate{AppID: e.ownAppID, Entry: base}
			winner := engine.TieBreak([]engine.Candidate{baseWinner, candWinner}, e.ownAppID)

			if winner.AppID != writerAppID {
				continue // baseline already holds the newest value
			}
		}

		surviving[k] = cand
		baseline[k] = cand
	}

	userEntries := make([]model.Entry, 0, len(surviving))

	for _, ent := range surviving {
		if isInfoMetaEntry(path, ent) {
			continue
		}

		userEntries = append(userEntries, ent)
	}

	delivered := true

	if extra.Some && len(userEntries) > 0 {
		delivered = dispatch(path, userEntries, listeners, extra.Value)
	}

	if !delivered {
		return false, nil
	}

	// Only persisted once delivery succeeds: writing this baseline earlier
	// would fold a failed batch into the own-appID dedup baseline, so
	// TieBreak would prefer it over the writer on the next read and the
	// entry would never be re-offered.
	if err := e.writeStoredEntries(ctx, ownStoredFile, baseline); err != nil {
		return false, fmt.Errorf("v1: writing own stored entries for %v: %w", path, err)
	}

	cursor[ck] = newOffset

	return true, nil
}

func isInfoMetaEntry(path []string, ent model.Entry) bool {
	if len(path) != 1 || path[0] != infoPathSegment {
		return false
	}

	keyStr, ok := ent.Key.(string)
	if !ok {
		return false
	}

	return hasStringPrefix(keyStr, lastActiveKeyPrefix) || hasStringPrefix(keyStr, supportedVersionPrefix)
}

func hasStringPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
