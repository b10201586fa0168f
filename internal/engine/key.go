package engine

import "encoding/json"

// CanonicalKey renders an entry key as a comparable string. DecSync keys
// are JSON values (almost always strings, sometimes small arrays/objects);
// Go's json.Marshal output for a given decoded value is stable enough
// within one process to use as a map key for "is this the same key"
// comparisons, which is all stored-entries merging needs.
func CanonicalKey(key any) (string, error) {
	data, err := json.Marshal(key)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
