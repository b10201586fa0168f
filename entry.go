// Package decsync implements conflict-free synchronization of hierarchical
// key/value maps across multiple devices using a shared directory as the
// only transport. See the doc comment on the Decsync type for the entry
// point.
package decsync

import "github.com/crdtsync/decsync/model"

// Entry is a single (datetime, key, value) triple written at some path.
// Datetime is an ISO-8601 UTC string and is lexicographically comparable;
// Key and Value are arbitrary JSON values.
type Entry = model.Entry

// EntryWithPath is an Entry tagged with the path it was written at.
type EntryWithPath = model.EntryWithPath

// StoredEntry identifies a single merged cell in the logical map: a path
// plus a key, without the value.
type StoredEntry = model.StoredEntry
