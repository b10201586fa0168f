// Package e2e holds full-cycle scenario tests driving the public decsync
// façade against testutil.MemoryFileSystem instances shared between
// simulated apps, the way the teacher's e2e suite drives its CLI against a
// fake Graph backend.
package e2e_test

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

func attach(t *testing.T, decsyncFS *testutil.MemoryFileSystem, ownAppID string) *decsync.Decsync[struct{}] {
	t.Helper()

	d, err := decsync.New[struct{}](context.Background(), decsync.Config[struct{}]{
		DecsyncFS: decsyncFS,
		LocalFS:   testutil.NewMemoryFileSystem(),
		SyncType:  "cats",
		OwnAppID:  ownAppID,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)

	return d
}

// S1: two V2 apps writing the same cell converge on the entry with the
// greatest datetime.
func TestScenario_TwoV2AppsConvergeOnLatestWrite(t *testing.T) {
	ctx := context.Background()
	decsyncFS := testutil.NewMemoryFileSystem()

	appA := attach(t, decsyncFS, "appA")
	appB := attach(t, decsyncFS, "appB")

	require.NoError(t, appA.SetEntriesForPath(ctx, []string{"persian"}, []decsync.Entry{
		{Datetime: "2024-01-01T00:00:10Z", Key: "name", Value: "Mittens"},
	}))
	require.NoError(t, appB.SetEntriesForPath(ctx, []string{"persian"}, []decsync.Entry{
		{Datetime: "2024-01-01T00:00:11Z", Key: "name", Value: "Whiskers"},
	}))

	var seenA, seenB []decsync.Entry

	appA.AddListener(nil, func(_ []string, e decsync.Entry, _ struct{}) { seenA = append(seenA, e) })
	appB.AddListener(nil, func(_ []string, e decsync.Entry, _ struct{}) { seenB = append(seenB, e) })

	require.NoError(t, appA.ExecuteAllNewEntries(ctx, struct{}{}))
	require.NoError(t, appB.ExecuteAllNewEntries(ctx, struct{}{}))

	require.NotEmpty(t, seenA)
	require.NotEmpty(t, seenB)
	assert.Equal(t, "Whiskers", seenA[len(seenA)-1].Value)
	assert.Equal(t, "Whiskers", seenB[len(seenB)-1].Value)
}

// S2: two apps share a version-1 directory and the old app has published a
// supported-version of 2; the new app's first maintenance pass upgrades the
// directory to V2 and migrates the old app's stored entries without loss.
func TestScenario_OnlineUpgradeFromV1PeerPublishingSupport(t *testing.T) {
	ctx := context.Background()
	decsyncFS := testutil.NewMemoryFileSystem()

	require.NoError(t, decsyncFS.Write(ctx, []string{".decsync-info"}, []byte(`{"version":1}`)))

	oldAppLocalFS := testutil.NewMemoryFileSystem()
	require.NoError(t, oldAppLocalFS.Write(ctx, []string{"info"}, []byte(`{"version":1}`)))

	oldApp, err := decsync.New[struct{}](ctx, decsync.Config[struct{}]{
		DecsyncFS: decsyncFS,
		LocalFS:   oldAppLocalFS,
		SyncType:  "cats",
		OwnAppID:  "dev1-old",
		Logger:    discardLogger(),
	})
	require.NoError(t, err)

	require.NoError(t, oldApp.SetEntriesForPath(ctx, []string{"persian"}, []decsync.Entry{
		{Datetime: "2024-01-01T00:00:00Z", Key: "name", Value: "Mittens"},
	}))
	require.NoError(t, oldApp.SetEntriesForPath(ctx, []string{"info"}, []decsync.Entry{
		{Datetime: "2024-01-02T00:00:00Z", Key: "supported-version-dev1-old", Value: float64(2)},
	}))

	newApp := attach(t, decsyncFS, "dev2-new")

	require.NoError(t, newApp.ExecuteAllNewEntries(ctx, struct{}{}))

	info, err := decsync.GetStaticInfo(ctx, decsyncFS, "cats", "", discardLogger())
	require.NoError(t, err)
	require.Contains(t, info, "supported-version-dev1-old")

	var migrated []decsync.Entry
	newApp.AddListener(nil, func(_ []string, e decsync.Entry, _ struct{}) { migrated = append(migrated, e) })

	require.NoError(t, newApp.ExecuteStoredEntry(ctx, []string{"persian"}, "name", struct{}{}))
	require.Len(t, migrated, 1)
	assert.Equal(t, "Mittens", migrated[0].Value, "the old peer's write must survive the online upgrade")
}

// S5: deleting one app's data via DeleteAppData removes its subtree and
// leaves readers that had already read from that writer unharmed.
func TestScenario_DeleteAppDataLeavesReadersWithoutError(t *testing.T) {
	ctx := context.Background()
	decsyncFS := testutil.NewMemoryFileSystem()

	doomed := attach(t, decsyncFS, "dev1-foo")
	survivor := attach(t, decsyncFS, "survivor")

	require.NoError(t, doomed.SetEntriesForPath(ctx, []string{"persian"}, []decsync.Entry{
		{Datetime: "2024-01-01T00:00:00Z", Key: "name", Value: "Mittens"},
	}))

	require.NoError(t, survivor.ExecuteAllNewEntries(ctx, struct{}{}))

	require.NoError(t, decsync.DeleteAppData(ctx, decsyncFS, "cats", "", "dev1-foo", decsync.DefaultVersion, decsync.DefaultVersion))

	// The survivor's sequence cursor for dev1-foo lived under dev1-foo's own
	// subtree and is gone with it; rescanning must be a no-op, not an error.
	require.NoError(t, survivor.ExecuteAllNewEntries(ctx, struct{}{}))
}
