package decsync_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crdtsync/decsync"
	"github.com/crdtsync/decsync/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(decsyncFS, localFS *testutil.MemoryFileSystem, ownAppID string) decsync.Config[string] {
	return decsync.Config[string]{
		DecsyncFS: decsyncFS,
		LocalFS:   localFS,
		SyncType:  "contacts",
		OwnAppID:  ownAppID,
		Logger:    discardLogger(),
	}
}

func TestNew_RequiresMandatoryFields(t *testing.T) {
	ctx := context.Background()
	fsys := testutil.NewMemoryFileSystem()

	_, err := decsync.New[string](ctx, decsync.Config[string]{})
	require.Error(t, err)

	_, err = decsync.New[string](ctx, decsync.Config[string]{DecsyncFS: fsys})
	require.Error(t, err)

	_, err = decsync.New[string](ctx, decsync.Config[string]{DecsyncFS: fsys, LocalFS: fsys})
	require.Error(t, err)

	_, err = decsync.New[string](ctx, decsync.Config[string]{DecsyncFS: fsys, LocalFS: fsys, SyncType: "contacts"})
	require.Error(t, err, "OwnAppID is required")
}

func TestNew_CreatesDecsyncInfoOnFirstUse(t *testing.T) {
	ctx := context.Background()
	decsyncFS := testutil.NewMemoryFileSystem()
	localFS := testutil.NewMemoryFileSystem()

	d, err := decsync.New[string](ctx, newTestConfig(decsyncFS, localFS, "appA"))
	require.NoError(t, err)
	require.NotNil(t, d)

	data, err := decsyncFS.Read(ctx, []string{".decsync-info"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":2`)
}

func TestNew_RejectsUnsupportedVersion(t *testing.T) {
	ctx := context.Background()
	decsyncFS := testutil.NewMemoryFileSystem()
	localFS := testutil.NewMemoryFileSystem()

	require.NoError(t, decsyncFS.Write(ctx, []string{".decsync-info"}, []byte(`{"version":99}`)))

	_, err := decsync.New[string](ctx, newTestConfig(decsyncFS, localFS, "appA"))
	require.Error(t, err)

	var unsupported *decsync.UnsupportedVersionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 99, unsupported.Required)
	assert.Equal(t, decsync.SupportedVersion, unsupported.Supported)
}

func TestDecsync_SetEntryThenExecuteAllNewEntriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	decsyncFS := testutil.NewMemoryFileSystem()

	writer, err := decsync.New[string](ctx, newTestConfig(decsyncFS, testutil.NewMemoryFileSystem(), "appA"))
	require.NoError(t, err)

	reader, err := decsync.New[string](ctx, newTestConfig(decsyncFS, testutil.NewMemoryFileSystem(), "appB"))
	require.NoError(t, err)

	require.NoError(t, writer.SetEntry(ctx, []string{"resources", "one"}, "title", "hello"))

	var got []decsync.Entry

	reader.AddListener([]string{"resources"}, func(_ []string, entry decsync.Entry, extra string) {
		got = append(got, entry)
		assert.Equal(t, "inbound", extra)
	})

	require.NoError(t, reader.ExecuteAllNewEntries(ctx, "inbound"))

	require.Len(t, got, 1)
	assert.Equal(t, "title", got[0].Key)
	assert.Equal(t, "hello", got[0].Value)
}

func TestDecsync_InitStoredEntriesSuppressesOwnHistory(t *testing.T) {
	ctx := context.Background()
	decsyncFS := testutil.NewMemoryFileSystem()

	writer, err := decsync.New[string](ctx, newTestConfig(decsyncFS, testutil.NewMemoryFileSystem(), "appA"))
	require.NoError(t, err)

	require.NoError(t, writer.SetEntry(ctx, []string{"resources", "one"}, "title", "hello"))

	reader, err := decsync.New[string](ctx, newTestConfig(decsyncFS, testutil.NewMemoryFileSystem(), "appB"))
	require.NoError(t, err)

	var got []decsync.Entry
	reader.AddListener([]string{"resources"}, func(_ []string, entry decsync.Entry, _ string) {
		got = append(got, entry)
	})

	require.NoError(t, reader.InitStoredEntries(ctx))
	assert.Empty(t, got, "InitStoredEntries must never invoke listeners")

	require.NoError(t, reader.ExecuteAllNewEntries(ctx, "x"))
	assert.Empty(t, got, "pre-existing history must not replay as new after init")
}

func TestDecsync_CloseIsIdempotentAndBlocksFurtherUse(t *testing.T) {
	ctx := context.Background()
	decsyncFS := testutil.NewMemoryFileSystem()

	d, err := decsync.New[string](ctx, newTestConfig(decsyncFS, testutil.NewMemoryFileSystem(), "appA"))
	require.NoError(t, err)

	require.NoError(t, d.Close(ctx))
	require.NoError(t, d.Close(ctx), "Close must be idempotent")

	err = d.SetEntry(ctx, []string{"resources"}, "key", "value")
	require.Error(t, err, "using a Decsync after Close must fail")
}
