package v2

import (
	"context"
	"errors"
	"fmt"

	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/internal/jsonline"
	"github.com/crdtsync/decsync/model"
	"github.com/crdtsync/decsync/pathcodec"
	"github.com/crdtsync/decsync/storage"
)

const (
	infoPathSegment        = "info"
	lastActiveKeyPrefix    = "last-active-"
	supportedVersionPrefix = "supported-version-"
)

// ExecuteAllNewEntries scans every writer's single append log (including the
// own app's) from this reader's last sequence offset and dispatches
// surviving entries per path.
func (e *Engine[E]) ExecuteAllNewEntries(ctx context.Context, listeners []engine.Listener[E], extra engine.OptExtra[E]) error {
	writerAppIDs, err := e.fsys.ListDirectories(ctx, e.v2Root())
	if err != nil {
		return fmt.Errorf("v2: listing writers: %w", err)
	}

	for _, writerAppID := range writerAppIDs {
		if err := e.executeNewEntriesForWriter(ctx, writerAppID, listeners, extra); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine[E]) executeNewEntriesForWriter(ctx context.Context, writerAppID string, listeners []engine.Listener[E], extra engine.OptExtra[E]) error {
	seqFile := e.sequenceFile(writerAppID, e.ownAppID)

	offset, err := e.readSequence(ctx, seqFile)
	if err != nil {
		return fmt.Errorf("v2: reading sequence for %s: %w", writerAppID, err)
	}

	batch, newOffset, err := jsonline.ReadFrom[model.EntryWithPath](ctx, e.fsys, e.entriesFile(writerAppID), offset, e.logger)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("v2: reading entries for %s: %w", writerAppID, err)
	}

	if len(batch) == 0 {
		return nil
	}

	byPath := make(map[string][]model.EntryWithPath)

	var order []string

	for _, ent := range batch {
		k := joinStrings(ent.Path)
		if _, ok := byPath[k]; !ok {
			order = append(order, k)
		}

		byPath[k] = append(byPath[k], ent)
	}

	allDelivered := true

	for _, k := range order {
		path := splitString(k)

		delivered, err := e.executeBatchForPath(ctx, writerAppID, path, byPath[k], listeners, extra)
		if err != nil {
			return err
		}

		if !delivered {
			allDelivered = false
		}
	}

	if allDelivered {
		if err := e.writeSequence(ctx, seqFile, newOffset); err != nil {
			return fmt.Errorf("v2: writing sequence for %s: %w", writerAppID, err)
		}
	}

	return nil
}

func (e *Engine[E]) executeBatchForPath(
	ctx context.Context,
	writerAppID string,
	path []string,
	batch []model.EntryWithPath,
	listeners []engine.Listener[E],
	extra engine.OptExtra[E],
) (bool, error) {
	encodedPath := pathcodec.EncodePath(path)

	collapsed := make(map[string]model.Entry)

	for _, ewp := range batch {
		k, err := engine.CanonicalKey(ewp.Entry.Key)
		if err != nil {
			e.logger.Warn("skipping entry with unencodable key", "error", err)
			continue
		}

		if cur, ok := collapsed[k]; !ok || ewp.Entry.Datetime > cur.Datetime {
			collapsed[k] = ewp.Entry
		}
	}

	baseline, err := e.loadStoredEntries(ctx, e.ownAppID, path, encodedPath)
	if err != nil {
		return false, fmt.Errorf("v2: loading own stored entries for %v: %w", path, err)
	}

	surviving := make(map[string]model.Entry)

	for k, cand := range collapsed {
		candWinner := engine.Candidate{AppID: writerAppID, Entry: cand}

		if base, ok := baseline[k]; ok {
			baseWinner := engine.Candidate{AppID: e.ownAppID, Entry: base}
			winner := engine.TieBreak([]engine.Candidate{baseWinner, candWinner}, e.ownAppID)

			if winner.AppID != writerAppID {
				continue
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
	if err := e.writeStoredEntries(ctx, e.ownAppID, encodedPath, baseline); err != nil {
		return false, fmt.Errorf("v2: writing own stored entries for %v: %w", path, err)
	}

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
