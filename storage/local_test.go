package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileSystemWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	fsys := NewLocalFileSystem(t.TempDir())

	path := []string{"a", "b.txt"}
	require.NoError(t, fsys.Write(ctx, path, []byte("hello")))

	data, err := fsys.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestLocalFileSystemReadMissingIsErrNotExist(t *testing.T) {
	ctx := context.Background()
	fsys := NewLocalFileSystem(t.TempDir())

	_, err := fsys.Read(ctx, []string{"missing"})
	require.True(t, errors.Is(err, ErrNotExist))
}

func TestLocalFileSystemAppendAccumulates(t *testing.T) {
	ctx := context.Background()
	fsys := NewLocalFileSystem(t.TempDir())

	path := []string{"log"}
	require.NoError(t, fsys.Append(ctx, path, []byte("a\n")))
	require.NoError(t, fsys.Append(ctx, path, []byte("b\n")))

	data, err := fsys.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestLocalFileSystemReadFromOffsetAdvances(t *testing.T) {
	ctx := context.Background()
	fsys := NewLocalFileSystem(t.TempDir())

	path := []string{"log"}
	require.NoError(t, fsys.Append(ctx, path, []byte("abcdef")))

	data, newOffset, err := fsys.ReadFrom(ctx, path, 3)
	require.NoError(t, err)
	assert.Equal(t, "def", string(data))
	assert.EqualValues(t, 6, newOffset)

	data, newOffset, err = fsys.ReadFrom(ctx, path, newOffset)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.EqualValues(t, 6, newOffset)
}

func TestLocalFileSystemListDirectoriesCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	fsys := NewLocalFileSystem(t.TempDir())

	require.NoError(t, fsys.Write(ctx, []string{"apps", "app1", "x"}, []byte("1")))

	names, err := fsys.ListDirectories(ctx, []string{"apps"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app1"}, names)

	require.NoError(t, fsys.Write(ctx, []string{"apps", "app2", "x"}, []byte("1")))

	// Cache was populated by the first ListDirectories call; writing under
	// apps/app2/x invalidates the cached listing of every ancestor,
	// including "apps", since app2 didn't exist before.
	names, err = fsys.ListDirectories(ctx, []string{"apps"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app1", "app2"}, names)
}

func TestLocalFileSystemNodeKind(t *testing.T) {
	ctx := context.Background()
	fsys := NewLocalFileSystem(t.TempDir())

	kind, err := fsys.NodeKind(ctx, []string{"missing"})
	require.NoError(t, err)
	assert.Equal(t, Absent, kind)

	require.NoError(t, fsys.Write(ctx, []string{"a", "f"}, []byte("x")))

	kind, err = fsys.NodeKind(ctx, []string{"a", "f"})
	require.NoError(t, err)
	assert.Equal(t, File, kind)

	kind, err = fsys.NodeKind(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, Directory, kind)
}

func TestLocalFileSystemDeleteRecursive(t *testing.T) {
	ctx := context.Background()
	fsys := NewLocalFileSystem(t.TempDir())

	require.NoError(t, fsys.Write(ctx, []string{"a", "b", "c"}, []byte("x")))
	require.NoError(t, fsys.Delete(ctx, []string{"a"}))

	kind, err := fsys.NodeKind(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, Absent, kind)
}
