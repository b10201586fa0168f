package decsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/internal/v1"
	"github.com/crdtsync/decsync/internal/v2"
	"github.com/crdtsync/decsync/storage"
)

// Decsync is the public façade: the entry point host applications
// use to read and write one (syncType, collection) subtree of a shared
// directory. It holds whichever storage-format engine (V1 or V2) is
// currently active and swaps it during an online version upgrade (§4.5).
//
// A Decsync instance is single-threaded from the caller's perspective: the
// same instance must not be used concurrently by two goroutines (spec.md
// §5). The one exception is the background deletion task a maintenance
// upgrade may spawn, tracked internally and joined by Close.
type Decsync[E any] struct {
	mu sync.Mutex

	fsys      storage.FileSystem
	localFsys storage.FileSystem
	syncType  string
	collection string
	ownAppID  string
	logger    *slog.Logger
	legacyWindowMonths int

	root []string // sub = D/S or D/S/C

	info  rootInfo
	local localInfo

	current   engine.Engine[E]
	listeners []engine.Listener[E]

	isInInit bool
	closed   bool

	eg *errgroup.Group
}

// Config bundles the parameters Decsync needs to attach to one
// (syncType, collection) subtree of a shared directory.
type Config[E any] struct {
	// DecsyncFS is the shared, synced directory (spec.md's "D"). Required.
	DecsyncFS storage.FileSystem
	// LocalFS is a private, never-synced directory this app instance uses
	// to persist its own local info (spec.md's "localDir"). Required.
	LocalFS storage.FileSystem
	// SyncType namespaces the category of data being synced, e.g.
	// "contacts". Required.
	SyncType string
	// Collection optionally partitions SyncType further, e.g. one address
	// book among many. Empty means no collection.
	Collection string
	// OwnAppID is this app instance's unique writer identity, typically
	// produced by GenerateAppID. Required.
	OwnAppID string
	// Logger defaults to slog.Default() when nil.
	Logger *slog.Logger
	// LegacyWindowMonths overrides how far back "recently active" looks
	// when deciding whether a peer blocks an automatic version upgrade
	// (spec.md §4.7). Defaults to 3 when zero.
	LegacyWindowMonths int
}

// New attaches to the (SyncType, Collection) subtree described by cfg,
// loading or creating .decsync-info, loading this app's local info, and
// picking the storage engine to speak (spec.md §4.2 step 2).
func New[E any](ctx context.Context, cfg Config[E]) (*Decsync[E], error) {
	if cfg.DecsyncFS == nil {
		return nil, errors.New("decsync: Config.DecsyncFS is required")
	}

	if cfg.LocalFS == nil {
		return nil, errors.New("decsync: Config.LocalFS is required")
	}

	if cfg.SyncType == "" {
		return nil, errors.New("decsync: Config.SyncType is required")
	}

	if cfg.OwnAppID == "" {
		return nil, errors.New("decsync: Config.OwnAppID is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	legacyWindow := cfg.LegacyWindowMonths
	if legacyWindow == 0 {
		legacyWindow = defaultLegacyWindow
	}

	info, err := loadOrCreateRootInfo(ctx, cfg.DecsyncFS)
	if err != nil {
		return nil, err
	}

	local, err := loadLocalInfo(ctx, cfg.LocalFS)
	if err != nil {
		return nil, err
	}

	root := subRoot(cfg.SyncType, cfg.Collection)

	version := local.Version
	if version == 0 {
		version, err = detectVersion(ctx, cfg.DecsyncFS, root, cfg.OwnAppID, info.Version)
		if err != nil {
			return nil, fmt.Errorf("decsync: detecting storage version: %w", err)
		}

		local.Version = version

		if err := saveLocalInfo(ctx, cfg.LocalFS, local); err != nil {
			return nil, fmt.Errorf("decsync: persisting chosen version: %w", err)
		}
	}

	d := &Decsync[E]{
		fsys:               cfg.DecsyncFS,
		localFsys:          cfg.LocalFS,
		syncType:           cfg.SyncType,
		collection:         cfg.Collection,
		ownAppID:           cfg.OwnAppID,
		logger:             logger,
		legacyWindowMonths: legacyWindow,
		root:               root,
		info:               info,
		local:              local,
		eg:                 &errgroup.Group{},
	}
	d.current = d.newEngineForVersion(version)

	return d, nil
}

// detectVersion picks the engine version a fresh (no local info) instance
// should speak: prefer an existing V2 writer subdir for ownAppID, else the
// highest peer version present, else the root info version.
func detectVersion(ctx context.Context, fsys storage.FileSystem, root []string, ownAppID string, infoVersion int) (int, error) {
	ownV2Dir := append(append([]string{}, root...), "v2", ownAppID)

	kind, err := fsys.NodeKind(ctx, ownV2Dir)
	if err != nil {
		return 0, err
	}

	if kind == storage.Directory {
		return 2, nil
	}

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

	return infoVersion, nil
}

func (d *Decsync[E]) newEngineForVersion(version int) engine.Engine[E] {
	if version == 1 {
		return v1.New[E](d.fsys, d.root, d.ownAppID, d.logger)
	}

	return v2.New[E](d.fsys, d.root, d.ownAppID, d.logger)
}

// Close awaits any in-flight background deletion task spawned by a prior
// maintenance upgrade (§4.5 step 2e). Using the Decsync after Close returns
// has returned is an error.
func (d *Decsync[E]) Close(_ context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}

	d.closed = true
	d.mu.Unlock()

	return d.eg.Wait()
}

func (d *Decsync[E]) snapshotListeners() []engine.Listener[E] {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]engine.Listener[E], len(d.listeners))
	copy(out, d.listeners)

	return out
}

func (d *Decsync[E]) currentEngine() (engine.Engine[E], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, errClosed
	}

	return d.current, nil
}
