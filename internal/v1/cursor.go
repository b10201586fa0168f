package v1

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/crdtsync/decsync/storage"
)

// readCursor is the JSON object stored at read/<reader>/<writer>: a map
// from "/"-joined encoded path segments (safe to join this way since each
// segment is already a hex string with no '/') to the byte offset this
// reader has consumed of that path's new-entries file. One cursor file per
// (reader, writer) pair keeps every path's progress together instead of
// scattering one tiny file per path, while still letting one path's
// listener failure hold back only that path.
type readCursor map[string]int64

func (e *Engine[E]) loadReadCursor(ctx context.Context, readerAppID, writerAppID string) (readCursor, error) {
	path := append(append([]string{}, e.readRoot()...), readerAppID, writerAppID)

	data, err := e.fsys.Read(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return readCursor{}, nil
		}

		return nil, err
	}

	cur := readCursor{}
	if err := json.Unmarshal(data, &cur); err != nil {
		e.logger.Warn("ignoring malformed read cursor, starting from zero", "reader", readerAppID, "writer", writerAppID)
		return readCursor{}, nil
	}

	return cur, nil
}

func (e *Engine[E]) saveReadCursor(ctx context.Context, readerAppID, writerAppID string, cur readCursor) error {
	path := append(append([]string{}, e.readRoot()...), readerAppID, writerAppID)

	data, err := json.Marshal(cur)
	if err != nil {
		return err
	}

	return e.fsys.Write(ctx, path, data)
}

func cursorKey(encodedPath []string) string {
	return strings.Join(encodedPath, "/")
}
