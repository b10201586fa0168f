package decsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/crdtsync/decsync/storage"
)

// DefaultVersion is the on-disk format version a fresh .decsync-info is
// created with. SupportedVersion is the newest format this build can speak;
// a directory advertising anything greater is rejected with
// UnsupportedVersionError.
const (
	DefaultVersion   = 2
	SupportedVersion = 2
)

var infoFilePath = []string{".decsync-info"}

// rootInfo is the parsed form of the root-directory .decsync-info file.
type rootInfo struct {
	Version int  `json:"version"`
	Fixed   bool `json:"fixed,omitempty"`
}

// loadOrCreateRootInfo loads .decsync-info, creating it with
// {"version": DefaultVersion} if absent. A malformed file or one
// advertising a version newer than SupportedVersion is a construction-time
// error (spec.md §4.2 step 1).
func loadOrCreateRootInfo(ctx context.Context, fsys storage.FileSystem) (rootInfo, error) {
	info, exists, err := readRootInfo(ctx, fsys)
	if err != nil {
		return rootInfo{}, err
	}

	if !exists {
		info = rootInfo{Version: DefaultVersion}
		if err := writeRootInfo(ctx, fsys, info); err != nil {
			return rootInfo{}, fmt.Errorf("decsync: creating .decsync-info: %w", err)
		}

		return info, nil
	}

	if info.Version > SupportedVersion {
		return rootInfo{}, &UnsupportedVersionError{Required: info.Version, Supported: SupportedVersion}
	}

	return info, nil
}

// readRootInfo reads .decsync-info without creating it, reporting whether
// it existed. Used both by loadOrCreateRootInfo and by the read-only
// cross-version queries in query.go, which must not write to a directory
// they are only inspecting.
func readRootInfo(ctx context.Context, fsys storage.FileSystem) (rootInfo, bool, error) {
	data, err := fsys.Read(ctx, infoFilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return rootInfo{}, false, nil
		}

		return rootInfo{}, false, fmt.Errorf("decsync: reading .decsync-info: %w", err)
	}

	var info rootInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return rootInfo{}, false, &InvalidInfoError{Path: joinPath(infoFilePath), Err: err}
	}

	if info.Version == 0 {
		return rootInfo{}, false, &InvalidInfoError{
			Path: joinPath(infoFilePath),
			Err:  errors.New(`missing or zero "version" field`),
		}
	}

	return info, true, nil
}

func writeRootInfo(ctx context.Context, fsys storage.FileSystem, info rootInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}

	return fsys.Write(ctx, infoFilePath, data)
}

// localInfoPath is relative to the per-app LocalFS, which is never synced.
var localInfoPath = []string{"info"}

// localInfo is the small, eagerly-persisted map of what this app instance
// last knew about itself: which engine version it has chosen, and what it
// last published about its own activity (design note 9, "mutable local
// info").
type localInfo struct {
	Version          int    `json:"version,omitempty"`
	LastActive       string `json:"last-active,omitempty"`
	SupportedVersion int    `json:"supported-version,omitempty"`
}

func loadLocalInfo(ctx context.Context, fsys storage.FileSystem) (localInfo, error) {
	data, err := fsys.Read(ctx, localInfoPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return localInfo{}, nil
		}

		return localInfo{}, fmt.Errorf("decsync: reading local info: %w", err)
	}

	var li localInfo
	if err := json.Unmarshal(data, &li); err != nil {
		// Local info is a disposable cache of this app's own past
		// decisions, not wire-critical state; a corrupt file just means
		// starting fresh, not a construction-time failure.
		return localInfo{}, nil
	}

	return li, nil
}

func saveLocalInfo(ctx context.Context, fsys storage.FileSystem, li localInfo) error {
	data, err := json.Marshal(li)
	if err != nil {
		return err
	}

	return fsys.Write(ctx, localInfoPath, data)
}

func joinPath(path []string) string {
	return "/" + strings.Join(path, "/")
}

// subRoot returns the sync-type/collection subtree root: D/S or D/S/C.
func subRoot(syncType, collection string) []string {
	if collection == "" {
		return []string{syncType}
	}

	return []string{syncType, collection}
}
