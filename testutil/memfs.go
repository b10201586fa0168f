// Package testutil holds test doubles shared across the module's test
// suites, the way the teacher keeps its fake Graph client and fixture
// helpers in a single testutil package instead of duplicating them per
// package.
package testutil

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/crdtsync/decsync/storage"
)

// MemoryFileSystem is an in-memory storage.FileSystem, used by unit and e2e
// tests that want many simulated "apps" sharing one directory without
// touching disk. Safe for concurrent use.
type MemoryFileSystem struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemoryFileSystem returns an empty MemoryFileSystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{files: make(map[string][]byte)}
}

func key(p []string) string {
	return path.Join(p...)
}

func (m *MemoryFileSystem) Read(_ context.Context, p []string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[key(p)]
	if !ok {
		return nil, storage.ErrNotExist
	}

	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}

func (m *MemoryFileSystem) Write(_ context.Context, p []string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	m.files[key(p)] = cp

	return nil
}

func (m *MemoryFileSystem) Append(_ context.Context, p []string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(p)
	m.files[k] = append(m.files[k], data...)

	return nil
}

func (m *MemoryFileSystem) ReadFrom(_ context.Context, p []string, offset int64) ([]byte, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[key(p)]
	if !ok {
		return nil, offset, storage.ErrNotExist
	}

	if offset >= int64(len(data)) {
		return nil, offset, nil
	}

	out := make([]byte, int64(len(data))-offset)
	copy(out, data[offset:])

	return out, offset + int64(len(out)), nil
}

func (m *MemoryFileSystem) ListDirectories(_ context.Context, p []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := key(p)
	seen := map[string]bool{}

	for k := range m.files {
		rel, ok := relativeChild(prefix, k)
		if !ok {
			continue
		}

		if idx := strings.Index(rel, "/"); idx >= 0 {
			seen[rel[:idx]] = true
		}
	}

	return sortedKeys(seen), nil
}

func (m *MemoryFileSystem) ListFiles(_ context.Context, p []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := key(p)
	seen := map[string]bool{}

	for k := range m.files {
		rel, ok := relativeChild(prefix, k)
		if !ok {
			continue
		}

		if !strings.Contains(rel, "/") {
			seen[rel] = true
		}
	}

	return sortedKeys(seen), nil
}

func (m *MemoryFileSystem) NodeKind(_ context.Context, p []string) (storage.NodeKind, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(p)
	if _, ok := m.files[k]; ok {
		return storage.File, nil
	}

	for fk := range m.files {
		if _, ok := relativeChild(k, fk); ok {
			return storage.Directory, nil
		}
	}

	return storage.Absent, nil
}

func (m *MemoryFileSystem) Delete(_ context.Context, p []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(p)
	delete(m.files, k)

	for fk := range m.files {
		if _, ok := relativeChild(k, fk); ok {
			delete(m.files, fk)
		}
	}

	return nil
}

func (m *MemoryFileSystem) ResetCache() {}

// relativeChild reports whether fullKey lives under prefix, returning the
// remainder after prefix + "/". Handles prefix == "" (root) specially.
func relativeChild(prefix, fullKey string) (string, bool) {
	if prefix == "" {
		return fullKey, fullKey != ""
	}

	rest, ok := strings.CutPrefix(fullKey, prefix+"/")

	return rest, ok
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
