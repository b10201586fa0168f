// Package pathcodec encodes arbitrary Unicode path segments into filesystem
// -legal names and back. The scheme is wire format — every DecSync
// directory on disk depends on it staying stable — and is pinned here
// rather than left to the host application.
//
// Encoding: each segment's UTF-8 bytes are rendered, unchanged, as
// lowercase hex digits and prefixed with "z". The prefix guarantees a
// non-empty result for the empty segment and means no encoded name is ever mistaken for a foreign file dropped into
// the tree by something other than this library.
package pathcodec

import (
	"encoding/hex"
	"strings"
)

const prefix = "z"

// EncodeSegment renders a single path segment as a filesystem-legal name.
// Total and reversible: every Unicode string has exactly one encoding, and
// DecodeSegment inverts it.
func EncodeSegment(segment string) string {
	return prefix + hex.EncodeToString([]byte(segment))
}

// DecodeSegment inverts EncodeSegment. Returns an error if name does not
// carry the "z" prefix or its remainder is not valid lowercase (or
// uppercase) hex — both conditions mean the name was not produced by this
// codec, which callers treat as a skip-this-entry condition rather than a
// fatal error when walking a directory that may contain foreign files.
func DecodeSegment(name string) (string, error) {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return "", &DecodeError{Name: name, Reason: "missing \"z\" prefix"}
	}

	raw, err := hex.DecodeString(strings.ToLower(rest))
	if err != nil {
		return "", &DecodeError{Name: name, Reason: err.Error()}
	}

	return string(raw), nil
}

// EncodePath renders an ordered sequence of path segments as the sequence
// of filesystem directory/file names used to store it.
func EncodePath(path []string) []string {
	out := make([]string, len(path))
	for i, seg := range path {
		out[i] = EncodeSegment(seg)
	}

	return out
}

// DecodePath inverts EncodePath, stopping at the first segment that fails
// to decode.
func DecodePath(encoded []string) ([]string, error) {
	out := make([]string, len(encoded))

	for i, seg := range encoded {
		decoded, err := DecodeSegment(seg)
		if err != nil {
			return nil, err
		}

		out[i] = decoded
	}

	return out, nil
}

// DecodeError reports that a filesystem name was not produced by
// EncodeSegment.
type DecodeError struct {
	Name   string
	Reason string
}

func (e *DecodeError) Error() string {
	return "pathcodec: cannot decode " + e.Name + ": " + e.Reason
}
