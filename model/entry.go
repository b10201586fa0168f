package model

import "encoding/json"

// Entry is a single (datetime, key, value) triple written at some path.
// Datetime is an ISO-8601 UTC string and is lexicographically comparable;
// Key and Value are arbitrary JSON values, decoded to the usual
// map[string]any / []any / string / float64 / bool / nil shapes.
type Entry struct {
	Datetime string
	Key      any
	Value    any
}

// MarshalJSON renders an Entry as the wire array [datetime, key, value].
func (e Entry) MarshalJSON() ([]byte, error) {
	return marshalJSONArray(e.Datetime, e.Key, e.Value)
}

// UnmarshalJSON parses the wire array [datetime, key, value]. Returns an
// error (never panics) on malformed input; callers treat that as an
// EntryParseFailure condition and skip the line.
func (e *Entry) UnmarshalJSON(data []byte) error {
	raw, err := unmarshalFixedArray(data, 3)
	if err != nil {
		return err
	}

	var dt string
	if err := json.Unmarshal(raw[0], &dt); err != nil {
		return errMalformedEntry("datetime is not a string")
	}

	var key, value any
	if err := json.Unmarshal(raw[1], &key); err != nil {
		return errMalformedEntry(err.Error())
	}

	if err := json.Unmarshal(raw[2], &value); err != nil {
		return errMalformedEntry(err.Error())
	}

	e.Datetime = dt
	e.Key = key
	e.Value = value

	return nil
}

// EntryWithPath is an Entry tagged with the path it was written at. On the
// wire it serializes as [[p1,...,pn], datetime, key, value].
type EntryWithPath struct {
	Path []string
	Entry
}

// MarshalJSON renders an EntryWithPath as the wire array
// [[p1,...,pn], datetime, key, value].
func (e EntryWithPath) MarshalJSON() ([]byte, error) {
	return marshalJSONArray(e.Path, e.Entry.Datetime, e.Entry.Key, e.Entry.Value)
}

// UnmarshalJSON parses the wire array [[p1,...,pn], datetime, key, value].
func (e *EntryWithPath) UnmarshalJSON(data []byte) error {
	raw, err := unmarshalFixedArray(data, 4)
	if err != nil {
		return err
	}

	var path []string
	if err := json.Unmarshal(raw[0], &path); err != nil {
		return errMalformedEntry("path is not an array of strings")
	}

	var dt string
	if err := json.Unmarshal(raw[1], &dt); err != nil {
		return errMalformedEntry("datetime is not a string")
	}

	var key, value any
	if err := json.Unmarshal(raw[2], &key); err != nil {
		return errMalformedEntry(err.Error())
	}

	if err := json.Unmarshal(raw[3], &value); err != nil {
		return errMalformedEntry(err.Error())
	}

	e.Path = path
	e.Entry = Entry{Datetime: dt, Key: key, Value: value}

	return nil
}

// StoredEntry identifies a single merged cell in the logical map: a path
// plus a key, without the value (the value is looked up separately from
// whichever stored-entries snapshot is authoritative for the query).
type StoredEntry struct {
	Path []string
	Key  any
}
