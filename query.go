package decsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/internal/localcache"
	"github.com/crdtsync/decsync/internal/v1"
	"github.com/crdtsync/decsync/internal/v2"
	"github.com/crdtsync/decsync/model"
	"github.com/crdtsync/decsync/storage"
)

// AppData describes what is known about one peer app from the outside,
// without attaching to it as a Decsync instance.
type AppData struct {
	AppID            string
	LastActive       string // "" if never published.
	Version          int
	SupportedVersion *int // nil if never published.
}

const (
	infoPath               = "info"
	lastActiveKeyPrefix    = "last-active-"
	supportedVersionPrefix = "supported-version-"
)

// GetStaticInfo aggregates every key ever written to path ["info"] across
// all peers and both storage formats, returning the entry with the
// greatest datetime for each key. V2 wins ties against V1, since V2 is the
// newer format (spec.md §4.6).
func GetStaticInfo(ctx context.Context, fsys storage.FileSystem, syncType, collection string, logger *slog.Logger) (map[string]Entry, error) {
	return collectStoredInfoForRoot(ctx, fsys, subRoot(syncType, collection), orDefaultLogger(logger))
}

// collectStoredInfo replays an engine's stored-entries for path ["info"]
// and returns them keyed by the info key (always a string in practice:
// "last-active-<appId>", "supported-version-<appId>", or a host-chosen
// flag).
func collectStoredInfo[E any](ctx context.Context, eng engine.Engine[E]) (map[string]Entry, error) {
	var zero E

	out := make(map[string]Entry)

	collector := engine.Listener[E]{
		Subpath: []string{infoPath},
		Invoke: func(_ []string, entries []model.Entry, _ E) bool {
			for _, e := range entries {
				if keyStr, ok := e.Key.(string); ok {
					out[keyStr] = e
				}
			}

			return true
		},
	}

	err := eng.ExecuteStoredEntriesForPathPrefix(ctx, []string{infoPath}, []engine.Listener[E]{collector}, zero, nil)

	return out, err
}

// GetEntriesCount counts cells whose merged value is not null among paths
// having prefix as a prefix, querying only the single latest storage
// version present in the directory.
func GetEntriesCount(ctx context.Context, fsys storage.FileSystem, syncType, collection string, prefix []string, logger *slog.Logger) (int, error) {
	logger = orDefaultLogger(logger)
	root := subRoot(syncType, collection)

	version, err := latestVersionPresent(ctx, fsys, root)
	if err != nil {
		return 0, fmt.Errorf("decsync: determining latest storage version: %w", err)
	}

	count := 0

	listener := engine.Listener[struct{}]{
		Subpath: nil,
		Invoke: func(_ []string, entries []model.Entry, _ struct{}) bool {
			for _, e := range entries {
				if e.Value != nil {
					count++
				}
			}

			return true
		},
	}

	eng := engineForVersion[struct{}](fsys, root, version, logger)
	if eng == nil {
		return 0, nil
	}

	err = eng.ExecuteStoredEntriesForPathPrefix(ctx, prefix, []engine.Listener[struct{}]{listener}, struct{}{}, nil)

	return count, err
}

// GetActiveApps returns the union of writer appIds under both storage
// formats, annotated with their published last-active and
// supported-version, and the format version they currently write. Sorted
// by (lastActive asc, version asc, appId asc).
//
// If cache is non-nil, each returned AppData is additionally appended as an
// observation row to the local secondary index, for the CLI's "apps
// --history" view. A failed index write is logged and otherwise ignored:
// the index is never authoritative.
func GetActiveApps(ctx context.Context, fsys storage.FileSystem, syncType, collection string, cache *localcache.Store, logger *slog.Logger) ([]AppData, error) {
	logger = orDefaultLogger(logger)

	apps, err := activeApps(ctx, fsys, subRoot(syncType, collection), logger)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		recordActivityObservations(ctx, cache, syncType, collection, apps, logger)
	}

	return apps, nil
}

func recordActivityObservations(ctx context.Context, cache *localcache.Store, syncType, collection string, apps []AppData, logger *slog.Logger) {
	for _, a := range apps {
		obs := localcache.Observation{
			AppID:            a.AppID,
			Version:          a.Version,
			SupportedVersion: a.SupportedVersion,
			ObservedAt:       currentDatetime(),
		}

		if a.LastActive != "" {
			lastActive := a.LastActive
			obs.LastActive = &lastActive
		}

		if err := cache.RecordActivity(ctx, syncType, collection, obs); err != nil {
			logger.Warn("decsync: recording activity observation failed", "app_id", a.AppID, "error", err)
		}
	}
}

func activeApps(ctx context.Context, fsys storage.FileSystem, root []string, logger *slog.Logger) ([]AppData, error) {
	versionOf := make(map[string]int)

	v1Writers, err := fsys.ListDirectories(ctx, append(append([]string{}, root...), "new-entries"))
	if err != nil {
		return nil, fmt.Errorf("decsync: listing v1 writers: %w", err)
	}

	for _, appID := range v1Writers {
		versionOf[appID] = 1
	}

	v2Writers, err := fsys.ListDirectories(ctx, append(append([]string{}, root...), "v2"))
	if err != nil {
		return nil, fmt.Errorf("decsync: listing v2 writers: %w", err)
	}

	for _, appID := range v2Writers {
		versionOf[appID] = 2 // a writer present in both has moved on to v2.
	}

	static, err := collectStoredInfoForRoot(ctx, fsys, root, logger)
	if err != nil {
		return nil, err
	}

	apps := make([]AppData, 0, len(versionOf))

	for appID, version := range versionOf {
		ad := AppData{AppID: appID, Version: version}

		if e, ok := static[lastActiveKeyPrefix+appID]; ok {
			if s, ok := e.Value.(string); ok {
				ad.LastActive = s
			}
		}

		if e, ok := static[supportedVersionPrefix+appID]; ok {
			if f, ok := e.Value.(float64); ok {
				sv := int(f)
				ad.SupportedVersion = &sv
			}
		}

		apps = append(apps, ad)
	}

	sort.Slice(apps, func(i, j int) bool {
		if apps[i].LastActive != apps[j].LastActive {
			return apps[i].LastActive < apps[j].LastActive
		}

		if apps[i].Version != apps[j].Version {
			return apps[i].Version < apps[j].Version
		}

		return apps[i].AppID < apps[j].AppID
	})

	return apps, nil
}

func collectStoredInfoForRoot(ctx context.Context, fsys storage.FileSystem, root []string, logger *slog.Logger) (map[string]Entry, error) {
	v1Entries, err := collectStoredInfo(ctx, v1.New[struct{}](fsys, root, "", logger))
	if err != nil {
		return nil, err
	}

	v2Entries, err := collectStoredInfo(ctx, v2.New[struct{}](fsys, root, "", logger))
	if err != nil {
		return nil, err
	}

	merged := make(map[string]Entry, len(v1Entries)+len(v2Entries))
	for k, e := range v1Entries {
		merged[k] = e
	}

	for k, e := range v2Entries {
		if cur, ok := merged[k]; !ok || e.Datetime >= cur.Datetime {
			merged[k] = e
		}
	}

	return merged, nil
}

// DeleteAppData deletes appID's writer subtree for version. For a V1
// deletion where a newer version is already current, it also deletes the
// legacy new-entries tree, since no V1 peer will ever consume it again.
func DeleteAppData(ctx context.Context, fsys storage.FileSystem, syncType, collection, appID string, version, currentVersion int) error {
	root := subRoot(syncType, collection)

	switch version {
	case 1:
		if err := fsys.Delete(ctx, append(append([]string{}, root...), "stored-entries", appID)); err != nil {
			return fmt.Errorf("decsync: deleting v1 stored-entries for %s: %w", appID, err)
		}

		if currentVersion > 1 {
			if err := fsys.Delete(ctx, append(append([]string{}, root...), "new-entries", appID)); err != nil {
				return fmt.Errorf("decsync: deleting legacy new-entries for %s: %w", appID, err)
			}
		}
	case 2:
		if err := fsys.Delete(ctx, append(append([]string{}, root...), "v2", appID)); err != nil {
			return fmt.Errorf("decsync: deleting v2 subtree for %s: %w", appID, err)
		}
	default:
		return fmt.Errorf("decsync: unknown storage version %d", version)
	}

	return nil
}

// PermDeleteCollection deletes the entire sub directory (D/S or D/S/C) and
// everything under it, for both storage formats.
func PermDeleteCollection(ctx context.Context, fsys storage.FileSystem, syncType, collection string) error {
	if err := fsys.Delete(ctx, subRoot(syncType, collection)); err != nil {
		return fmt.Errorf("decsync: deleting collection: %w", err)
	}

	return nil
}

func latestVersionPresent(ctx context.Context, fsys storage.FileSystem, root []string) (int, error) {
	v2Writers, err := fsys.ListDirectories(ctx, append(append([]string{}, root...), "v2"))
	if err != nil {
		return 0, err
	}

	if len(v2Writers) > 0 {
		return 2, nil
	}

	v1Writers, err := fsys.ListDirectories(ctx, append(append([]string{}, root...), "new-entries"))
	if err != nil {
		return 0, err
	}

	if len(v1Writers) > 0 {
		return 1, nil
	}

	info, exists, err := readRootInfo(ctx, fsys)
	if err != nil {
		var invalid *InvalidInfoError
		if errors.As(err, &invalid) {
			return 0, nil
		}

		return 0, err
	}

	if !exists {
		return 0, nil
	}

	return info.Version, nil
}

func engineForVersion[E any](fsys storage.FileSystem, root []string, version int, logger *slog.Logger) engine.Engine[E] {
	switch version {
	case 1:
		return v1.New[E](fsys, root, "", logger)
	case 2:
		return v2.New[E](fsys, root, "", logger)
	default:
		return nil
	}
}

func orDefaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}

	return logger
}
