package decsync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crdtsync/decsync"
	"github.com/crdtsync/decsync/testutil"
)

func TestAddListenerWithSuccess_RedeliversUntilEveryEntrySucceeds(t *testing.T) {
	ctx := context.Background()
	decsyncFS := testutil.NewMemoryFileSystem()

	writer, err := decsync.New[string](ctx, newTestConfig(decsyncFS, testutil.NewMemoryFileSystem(), "appA"))
	require.NoError(t, err)

	reader, err := decsync.New[string](ctx, newTestConfig(decsyncFS, testutil.NewMemoryFileSystem(), "appB"))
	require.NoError(t, err)

	require.NoError(t, writer.SetEntriesForPath(ctx, []string{"resources", "one"}, []decsync.Entry{
		{Datetime: "2024-01-01T00:00:00Z", Key: "a", Value: 1.0},
		{Datetime: "2024-01-01T00:00:00Z", Key: "b", Value: 2.0},
	}))

	attempts := 0

	reader.AddListenerWithSuccess([]string{"resources"}, func(_ []string, entry decsync.Entry, _ string) bool {
		attempts++
		// Only "a" succeeds the first time; "b" keeps failing until the
		// second delivery.
		return entry.Key == "a" || attempts > 2
	})

	require.NoError(t, reader.ExecuteAllNewEntries(ctx, "x"))
	require.NoError(t, reader.ExecuteAllNewEntries(ctx, "x"))

	assert.GreaterOrEqual(t, attempts, 3, "the batch must be redelivered until every entry succeeds")
}

func TestAddMultiListener_ReceivesWholeBatchPerPath(t *testing.T) {
	ctx := context.Background()
	decsyncFS := testutil.NewMemoryFileSystem()

	writer, err := decsync.New[string](ctx, newTestConfig(decsyncFS, testutil.NewMemoryFileSystem(), "appA"))
	require.NoError(t, err)

	reader, err := decsync.New[string](ctx, newTestConfig(decsyncFS, testutil.NewMemoryFileSystem(), "appB"))
	require.NoError(t, err)

	require.NoError(t, writer.SetEntriesForPath(ctx, []string{"resources", "one"}, []decsync.Entry{
		{Datetime: "2024-01-01T00:00:00Z", Key: "a", Value: 1.0},
		{Datetime: "2024-01-01T00:00:00Z", Key: "b", Value: 2.0},
	}))

	var batches [][]decsync.Entry

	reader.AddMultiListener([]string{"resources"}, func(_ []string, entries []decsync.Entry, _ string) bool {
		batches = append(batches, entries)
		return true
	})

	require.NoError(t, reader.ExecuteAllNewEntries(ctx, "x"))

	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2, "a multi-listener must see both entries for the path in one delivery")
}

func TestExecuteStoredEntriesForPathExact_ExcludesNestedPaths(t *testing.T) {
	ctx := context.Background()
	decsyncFS := testutil.NewMemoryFileSystem()

	app, err := decsync.New[string](ctx, newTestConfig(decsyncFS, testutil.NewMemoryFileSystem(), "appA"))
	require.NoError(t, err)

	require.NoError(t, app.SetEntriesForPath(ctx, []string{"resources"}, []decsync.Entry{
		{Datetime: "2024-01-01T00:00:00Z", Key: "shallow", Value: "top"},
	}))
	require.NoError(t, app.SetEntriesForPath(ctx, []string{"resources", "nested"}, []decsync.Entry{
		{Datetime: "2024-01-01T00:00:00Z", Key: "deep", Value: "bottom"},
	}))

	var got []string

	app.AddListener([]string{"resources"}, func(_ []string, entry decsync.Entry, _ string) {
		got = append(got, entry.Key.(string))
	})

	require.NoError(t, app.ExecuteStoredEntriesForPathExact(ctx, []string{"resources"}, "x", nil))

	assert.Equal(t, []string{"shallow"}, got, "exact-path replay must not surface entries at a deeper nested path")
}
