package v2

import (
	"context"
	"errors"
	"fmt"

	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/internal/fswalk"
	"github.com/crdtsync/decsync/internal/jsonline"
	"github.com/crdtsync/decsync/model"
	"github.com/crdtsync/decsync/pathcodec"
	"github.com/crdtsync/decsync/storage"
)

// ExecuteStoredEntriesForPathPrefix replays the current merged value of
// every (path, key) under prefix, folding every writer's own stored-entries
// view (each one that writer has observed of itself and its peers) the same
// way V1 folds across appIds.
func (e *Engine[E]) ExecuteStoredEntriesForPathPrefix(
	ctx context.Context,
	prefix []string,
	listeners []engine.Listener[E],
	extra E,
	keys []any,
) error {
	writerAppIDs, err := e.fsys.ListDirectories(ctx, e.v2Root())
	if err != nil {
		return fmt.Errorf("v2: listing writers: %w", err)
	}

	merged := make(map[string]map[string]engine.Candidate) // path key -> canonical key -> candidate

	encodedPrefix := pathcodec.EncodePath(prefix)

	for _, ownerAppID := range writerAppIDs {
		base := e.storedEntriesRoot(ownerAppID)

		encodedPaths, err := fswalk.EncodedPaths(ctx, e.fsys, base)
		if err != nil {
			return fmt.Errorf("v2: walking stored-entries for %s: %w", ownerAppID, err)
		}

		for _, enc := range encodedPaths {
			if !hasPrefix(enc, encodedPrefix) {
				continue
			}

			decoded, err := pathcodec.DecodePath(enc)
			if err != nil {
				e.logger.Warn("skipping undecodable stored-entries path", "error", err)
				continue
			}

			pathKey := joinStrings(decoded)

			full := append(append([]string{}, base...), enc...)

			data, err := e.fsys.Read(ctx, full)
			if err != nil {
				if errors.Is(err, storage.ErrNotExist) {
					continue
				}

				return err
			}

			for _, ent := range jsonline.ParseAll[model.Entry](data, decoded, e.logger) {
				if !keyAllowed(ent.Key, keys) {
					continue
				}

				k, err := engine.CanonicalKey(ent.Key)
				if err != nil {
					continue
				}

				if merged[pathKey] == nil {
					merged[pathKey] = make(map[string]engine.Candidate)
				}

				cur, ok := merged[pathKey][k]
				cand := engine.Candidate{AppID: ownerAppID, Entry: ent}

				if !ok {
					merged[pathKey][k] = cand
				} else {
					merged[pathKey][k] = engine.TieBreak([]engine.Candidate{cur, cand}, e.ownAppID)
				}
			}
		}
	}

	for pathKey, byKey := range merged {
		path := splitString(pathKey)

		entries := make([]model.Entry, 0, len(byKey))
		for _, cand := range byKey {
			entries = append(entries, cand.Entry)
		}

		dispatch(path, entries, listeners, extra)
	}

	return nil
}

func hasPrefix(full, prefix []string) bool {
	if len(full) < len(prefix) {
		return false
	}

	for i, p := range prefix {
		if full[i] != p {
			return false
		}
	}

	return true
}

func keyAllowed(key any, keys []any) bool {
	if keys == nil {
		return true
	}

	k, err := engine.CanonicalKey(key)
	if err != nil {
		return false
	}

	for _, allowed := range keys {
		ak, err := engine.CanonicalKey(allowed)
		if err == nil && ak == k {
			return true
		}
	}

	return false
}
