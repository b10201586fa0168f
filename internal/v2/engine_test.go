package v2_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/internal/v2"
	"github.com/crdtsync/decsync/model"
	"github.com/crdtsync/decsync/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func collectListener(got *[][]model.Entry) engine.Listener[string] {
	return engine.Listener[string]{
		Subpath: []string{"resources"},
		Invoke: func(_ []string, entries []model.Entry, _ string) bool {
			*got = append(*got, entries)
			return true
		},
	}
}

func TestEngine_WriteThenReadRoundTrip(t *testing.T) {
	fsys := testutil.NewMemoryFileSystem()
	root := []string{"decsync", "resourcetype"}

	writer := v2.New[string](fsys, root, "appA", discardLogger())
	reader := v2.New[string](fsys, root, "appB", discardLogger())

	ctx := context.Background()

	require.NoError(t, writer.SetEntriesForPath(ctx, []string{"resources", "one"}, []model.Entry{
		{Datetime: "2024-01-01T00:00:00Z", Key: "title", Value: "hello"},
	}))

	var got [][]model.Entry
	listeners := []engine.Listener[string]{collectListener(&got)}

	require.NoError(t, reader.ExecuteAllNewEntries(ctx, listeners, engine.Some("extra")))

	require.Len(t, got, 1)
	require.Len(t, got[0], 1)
	assert.Equal(t, "hello", got[0][0].Value)

	got = nil
	require.NoError(t, reader.ExecuteAllNewEntries(ctx, listeners, engine.Some("extra")))
	assert.Empty(t, got)
}

func TestEngine_MultiplePathsInOneLogBatch(t *testing.T) {
	fsys := testutil.NewMemoryFileSystem()
	root := []string{"decsync", "resourcetype"}

	writer := v2.New[string](fsys, root, "appA", discardLogger())
	reader := v2.New[string](fsys, root, "appB", discardLogger())

	ctx := context.Background()

	require.NoError(t, writer.SetEntriesForPath(ctx, []string{"resources", "one"}, []model.Entry{
		{Datetime: "2024-01-01T00:00:00Z", Key: "title", Value: "one"},
	}))
	require.NoError(t, writer.SetEntriesForPath(ctx, []string{"resources", "two"}, []model.Entry{
		{Datetime: "2024-01-01T00:00:01Z", Key: "title", Value: "two"},
	}))

	var got [][]model.Entry
	listeners := []engine.Listener[string]{collectListener(&got)}

	require.NoError(t, reader.ExecuteAllNewEntries(ctx, listeners, engine.Some("extra")))

	require.Len(t, got, 2)
}

func TestEngine_ListenerFailureCausesRedelivery(t *testing.T) {
	fsys := testutil.NewMemoryFileSystem()
	root := []string{"decsync", "resourcetype"}

	writer := v2.New[string](fsys, root, "appA", discardLogger())
	reader := v2.New[string](fsys, root, "appB", discardLogger())

	ctx := context.Background()

	require.NoError(t, writer.SetEntriesForPath(ctx, []string{"resources", "one"}, []model.Entry{
		{Datetime: "2024-01-01T00:00:00Z", Key: "title", Value: "hello"},
	}))

	attempts := 0
	failingListener := engine.Listener[string]{
		Subpath: []string{"resources"},
		Invoke: func(_ []string, _ []model.Entry, _ string) bool {
			attempts++
			return false
		},
	}

	listeners := []engine.Listener[string]{failingListener}

	require.NoError(t, reader.ExecuteAllNewEntries(ctx, listeners, engine.Some("extra")))
	require.NoError(t, reader.ExecuteAllNewEntries(ctx, listeners, engine.Some("extra")))

	assert.Equal(t, 2, attempts)
}

func TestEngine_InfoMetadataNeverReachesListener(t *testing.T) {
	fsys := testutil.NewMemoryFileSystem()
	root := []string{"decsync", "resourcetype"}

	writer := v2.New[string](fsys, root, "appA", discardLogger())
	reader := v2.New[string](fsys, root, "appB", discardLogger())

	ctx := context.Background()

	require.NoError(t, writer.SetEntriesForPath(ctx, []string{"info"}, []model.Entry{
		{Datetime: "2024-01-01T00:00:00Z", Key: "last-active-appA", Value: "2024-01-01T00:00:00Z"},
		{Datetime: "2024-01-01T00:00:00Z", Key: "some-user-flag", Value: true},
	}))

	var got [][]model.Entry
	listeners := []engine.Listener[string]{{
		Subpath: []string{"info"},
		Invoke: func(_ []string, entries []model.Entry, _ string) bool {
			got = append(got, entries)
			return true
		},
	}}

	require.NoError(t, reader.ExecuteAllNewEntries(ctx, listeners, engine.Some("extra")))

	require.Len(t, got, 1)
	require.Len(t, got[0], 1)
	assert.Equal(t, "some-user-flag", got[0][0].Key)
}

func TestEngine_ExecuteStoredEntriesForPathPrefix(t *testing.T) {
	fsys := testutil.NewMemoryFileSystem()
	root := []string{"decsync", "resourcetype"}

	writer := v2.New[string](fsys, root, "appA", discardLogger())
	reader := v2.New[string](fsys, root, "appB", discardLogger())

	ctx := context.Background()

	require.NoError(t, writer.SetEntriesForPath(ctx, []string{"resources", "one"}, []model.Entry{
		{Datetime: "2024-01-01T00:00:00Z", Key: "title", Value: "hello"},
	}))

	require.NoError(t, reader.ExecuteAllNewEntries(ctx, nil, engine.None[string]()))

	var got [][]model.Entry
	listeners := []engine.Listener[string]{collectListener(&got)}

	require.NoError(t, reader.ExecuteStoredEntriesForPathPrefix(ctx, []string{"resources"}, listeners, "extra", nil))

	require.Len(t, got, 1)
	require.Len(t, got[0], 1)
	assert.Equal(t, "title", got[0][0].Key)
}
