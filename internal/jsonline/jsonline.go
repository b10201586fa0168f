// Package jsonline implements the on-disk line format shared by the V1 and
// V2 engines: one JSON value per line, UTF-8, newline-terminated. A line
// that fails to parse is logged and skipped, never fatal (SPEC_FULL §7,
// EntryParseFailure) — this package is where that rule lives so both
// engines get it for free.
package jsonline

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/crdtsync/decsync/storage"
)

// Append marshals value and appends it as one newline-terminated JSON line
// to path.
func Append(ctx context.Context, fsys storage.FileSystem, path []string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return fsys.Append(ctx, path, append(data, '\n'))
}

// ReadFrom reads path from offset to the end of the last complete line,
// unmarshals each line into a new T, and returns the parsed values plus the
// offset just past the last complete line consumed. A trailing partial line
// (no terminating '\n' yet, because a concurrent writer is mid-append) is
// left unconsumed: the returned offset points before it, so the next call
// picks it up once it's complete.
//
// Lines that parse as valid JSON but fail to unmarshal into T, or aren't
// valid JSON at all, are logged at Warn and skipped — they still count
// toward the consumed offset, since skipping them is itself forward
// progress per EntryParseFailure.
func ReadFrom[T any](ctx context.Context, fsys storage.FileSystem, path []string, offset int64, logger *slog.Logger) ([]T, int64, error) {
	data, _, err := fsys.ReadFrom(ctx, path, offset)
	if err != nil {
		return nil, offset, err
	}

	if len(data) == 0 {
		return nil, offset, nil
	}

	lastNL := bytes.LastIndexByte(data, '\n')
	if lastNL < 0 {
		// No complete line yet.
		return nil, offset, nil
	}

	complete := data[:lastNL+1]
	newOffset := offset + int64(len(complete))

	var out []T

	for _, line := range bytes.Split(complete, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			logger.Warn("skipping malformed decsync entry line",
				slog.String("path", joinPath(path)), slog.String("error", err.Error()))

			continue
		}

		out = append(out, v)
	}

	return out, newOffset, nil
}

// ParseAll parses every line of an already-fully-read file (a stored-
// entries snapshot, which is always written whole via FileSystem.Write
// rather than appended to). Malformed lines are logged and skipped.
func ParseAll[T any](data []byte, path []string, logger *slog.Logger) []T {
	var out []T

	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			logger.Warn("skipping malformed decsync stored-entry line",
				slog.String("path", joinPath(path)), slog.String("error", err.Error()))

			continue
		}

		out = append(out, v)
	}

	return out
}

// RenderAll marshals values as newline-terminated JSON lines, one per
// value, ready for FileSystem.Write.
func RenderAll[T any](values []T) ([]byte, error) {
	var buf bytes.Buffer

	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		buf.Write(data)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "."
	}

	out := path[0]
	for _, p := range path[1:] {
		out += "/" + p
	}

	return out
}
