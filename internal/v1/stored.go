package v1

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

// loadStoredEntries reads storedFile's full snapshot (possibly absent) as a
// map keyed by engine.CanonicalKey.
func (e *Engine[E]) loadStoredEntries(ctx context.Context, storedFile []string, path []string) (map[string]model.Entry, error) {
	out := make(map[string]model.Entry)

	data, err := e.fsys.Read(ctx, storedFile)
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

func (e *Engine[E]) writeStoredEntries(ctx context.Context, storedFile []string, byKey map[string]model.Entry) error {
	entries := make([]model.Entry, 0, len(byKey))
	for _, ent := range byKey {
		entries = append(entries, ent)
	}

	data, err := jsonline.RenderAll(entries)
	if err != nil {
		return err
	}

	return e.fsys.Write(ctx, storedFile, data)
}

// ExecuteStoredEntriesForPathPrefix replays the current merged value of
// every (path, key) under prefix, folding this app's own stored-entries
// view across peers' stored-entries as an optimization (never trusted over
// new-entries for the delivery path — only used here, for direct stored
// -entry queries, per design note 9).
func (e *Engine[E]) ExecuteStoredEntriesForPathPrefix(
	ctx context.Context,
	prefix []string,
	listeners []engine.Listener[E],
	extra E,
	keys []any,
) error {
	appIDs, err := e.fsys.ListDirectories(ctx, e.storedEntriesRoot())
	if err != nil {
		return fmt.Errorf("v1: listing stored-entries apps: %w", err)
	}

	merged := make(map[string]map[string]engine.Candidate) // path key -> canonical key -> candidate

	encodedPrefix := pathcodec.EncodePath(prefix)

	for _, appID := range appIDs {
		base := append(append([]string{}, e.storedEntriesRoot()...), appID)
		encodedPaths, err := fswalk.EncodedPaths(ctx, e.fsys, base)
		if err != nil {
			return fmt.Errorf("v1: walking stored-entries for %s: %w", appID, err)
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
				cand := engine.Candidate{AppID: appID, Entry: ent}

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

func dispatch[E any](path []string, entries []model.Entry, listeners []engine.Listener[E], extra E) bool {
	ok := true

	for _, l := range listeners {
		if !l.Matches(path) {
			continue
		}

		if !l.Invoke(path, entries, extra) {
			ok = false
		}
	}

	return ok
}

func joinStrings(ss []string) string {
	out := ""

	for i, s := range ss {
		if i > 0 {
			out += "\x00"
		}

		out += s
	}

	return out
}

func splitString(s string) []string {
	if s == "" {
		return nil
	}

	var out []string

	start := 0

	for i := 0; i < len(s); i++ {
		if s[i] == '\x00' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}

	out = append(out, s[start:])

	return out
}
