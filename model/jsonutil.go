package model

import "encoding/json"

// marshalJSONArray is a small helper so Entry/EntryWithPath can render
// themselves as a flat JSON array without hand-building the buffer.
func marshalJSONArray(fields ...any) ([]byte, error) {
	return json.Marshal(fields)
}

// unmarshalFixedArray decodes data into a JSON array of exactly arity
// elements, returning each element's raw bytes. Any other shape — wrong
// length, not an array, invalid JSON — is an EntryParseFailure: callers
// log and skip the line rather than propagate it.
func unmarshalFixedArray(data []byte, arity int) ([]json.RawMessage, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errMalformedEntry(err.Error())
	}

	if len(raw) != arity {
		return nil, errMalformedEntry("wrong array arity")
	}

	return raw, nil
}
