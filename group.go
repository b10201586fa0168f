package decsync

import "strings"

// pathGroup collects the entries that SetEntries was given for one path, in
// the order their first entry for that path appeared.
type pathGroup struct {
	path    []string
	entries []Entry
}

func groupByPath(items []EntryWithPath) []pathGroup {
	order := make([]string, 0, len(items))
	groups := make(map[string]*pathGroup, len(items))

	for _, it := range items {
		k := pathGroupKey(it.Path)

		g, ok := groups[k]
		if !ok {
			g = &pathGroup{path: it.Path}
			groups[k] = g
			order = append(order, k)
		}

		g.entries = append(g.entries, it.Entry)
	}

	out := make([]pathGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}

	return out
}

// storedPathGroup collects the keys ExecuteStoredEntries was given for one
// path.
type storedPathGroup struct {
	path []string
	keys []any
}

func groupStoredByPath(items []StoredEntry) []storedPathGroup {
	order := make([]string, 0, len(items))
	groups := make(map[string]*storedPathGroup, len(items))

	for _, it := range items {
		k := pathGroupKey(it.Path)

		g, ok := groups[k]
		if !ok {
			g = &storedPathGroup{path: it.Path}
			groups[k] = g
			order = append(order, k)
		}

		g.keys = append(g.keys, it.Key)
	}

	out := make([]storedPathGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}

	return out
}

func pathGroupKey(path []string) string {
	return strings.Join(path, "\x00")
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
