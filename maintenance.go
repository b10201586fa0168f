package decsync

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/crdtsync/decsync/internal/engine"
	"github.com/crdtsync/decsync/model"
)

// runMaintenance implements spec.md §4.5: recompute the preferred storage
// version and upgrade online if it is newer than what this instance
// currently speaks, then republish this app's last-active and
// supported-version info entries.
func (d *Decsync[E]) runMaintenance(ctx context.Context, extra E) error {
	d.mu.Lock()
	fixed := d.info.Fixed
	d.mu.Unlock()

	if fixed {
		return d.updateActivityMetadata(ctx)
	}

	preferred, err := d.preferredVersion(ctx)
	if err != nil {
		return fmt.Errorf("decsync: computing preferred storage version: %w", err)
	}

	d.mu.Lock()
	currentVersion := d.current.Version()
	d.mu.Unlock()

	if preferred > currentVersion {
		if err := d.upgradeTo(ctx, preferred, extra); err != nil {
			return fmt.Errorf("decsync: upgrading to storage version %d: %w", preferred, err)
		}
	}

	return d.updateActivityMetadata(ctx)
}

// preferredVersion inspects .decsync-info and the directory's active peers
// to decide what version this instance should be speaking. If any active
// peer is legacy (§4.7), the current version is kept rather than advanced,
// even if .decsync-info could in principle be bumped.
func (d *Decsync[E]) preferredVersion(ctx context.Context) (int, error) {
	d.mu.Lock()
	info := d.info
	currentVersion := d.current.Version()
	legacyWindow := d.legacyWindowMonths
	d.mu.Unlock()

	apps, err := activeApps(ctx, d.fsys, d.root, d.logger)
	if err != nil {
		return 0, err
	}

	threshold := oldDatetime(legacyWindow)

	for _, a := range apps {
		if isLegacyAppData(a, threshold) {
			return currentVersion, nil
		}
	}

	preferred := DefaultVersion
	if info.Version > preferred {
		preferred = info.Version
	}

	if preferred > info.Version {
		info.Version = preferred

		if err := writeRootInfo(ctx, d.fsys, info); err != nil {
			return 0, err
		}

		d.mu.Lock()
		d.info = info
		d.mu.Unlock()
	}

	return preferred, nil
}

// isLegacyAppData reports whether a (design note 9, §4.7) an app should be
// treated as legacy, blocking auto-upgrade: it has recently published a
// last-active at or after threshold, and it has declared a supportedVersion
// strictly below DefaultVersion. An app with no declared supportedVersion
// predates that declaration and is assumed forward-compatible.
func isLegacyAppData(a AppData, threshold string) bool {
	if a.LastActive == "" || a.LastActive < threshold {
		return false
	}

	if a.SupportedVersion == nil {
		return false
	}

	return *a.SupportedVersion < DefaultVersion
}

// upgradeTo swaps the active engine for one speaking version, replaying
// every currently-stored entry through it first so no history is lost, and
// schedules the old engine's own subtree for background deletion.
func (d *Decsync[E]) upgradeTo(ctx context.Context, version int, extra E) error {
	upgradeID := uuid.New().String()

	d.fsys.ResetCache()

	d.mu.Lock()
	oldEngine := d.current
	d.mu.Unlock()

	d.logger.Info("decsync: starting online storage version upgrade",
		"upgrade_id", upgradeID, "app_id", d.ownAppID, "from_version", oldEngine.Version(), "to_version", version)

	newEngine := d.newEngineForVersion(version)

	var collected []model.EntryWithPath

	collector := engine.Listener[E]{
		Invoke: func(path []string, entries []model.Entry, _ E) bool {
			for _, e := range entries {
				collected = append(collected, model.EntryWithPath{Path: path, Entry: e})
			}

			return true
		},
	}

	var zero E
	if err := oldEngine.ExecuteStoredEntriesForPathPrefix(ctx, nil, []engine.Listener[E]{collector}, zero, nil); err != nil {
		return fmt.Errorf("replaying stored entries from version %d: %w", oldEngine.Version(), err)
	}

	for _, g := range groupByPath(collected) {
		if err := newEngine.SetEntriesForPath(ctx, g.path, g.entries); err != nil {
			return fmt.Errorf("seeding version %d: %w", version, err)
		}
	}

	d.mu.Lock()
	d.current = newEngine
	d.mu.Unlock()

	oldSubtree := oldEngine.OwnSubtreePath()
	d.eg.Go(func() error {
		if err := d.fsys.Delete(context.Background(), oldSubtree); err != nil {
			d.logger.Warn("decsync: background deletion of old own subtree failed",
				"upgrade_id", upgradeID, "app_id", d.ownAppID, "old_version", oldEngine.Version(), "error", err)

			return nil
		}

		d.logger.Debug("decsync: background deletion of old own subtree complete", "upgrade_id", upgradeID)

		return nil
	})

	// Read the new format's logs right away (peers already writing it, and
	// the seed written above) and deliver what survives: the outer
	// ExecuteAllNewEntries call that triggered this upgrade reads from the
	// new engine's cursors only after they exist, so anything consumed here
	// must be dispatched now or it is lost for good. Entries written to the
	// old format after the replay above are not read here.
	if err := newEngine.ExecuteAllNewEntries(ctx, d.snapshotListeners(), engine.Some(extra)); err != nil {
		return fmt.Errorf("catching up new engine after upgrade: %w", err)
	}

	return nil
}

// updateActivityMetadata implements §4.5 steps 3-4: republish
// last-active-<ownAppId> when today's date has changed since the last
// publish, and supported-version-<ownAppId> when this build's
// SupportedVersion exceeds what was last published.
func (d *Decsync[E]) updateActivityMetadata(ctx context.Context) error {
	d.mu.Lock()
	local := d.local
	d.mu.Unlock()

	now := currentDatetime()
	today := now[:10]

	lastActiveDate := ""
	if len(local.LastActive) >= 10 {
		lastActiveDate = local.LastActive[:10]
	}

	if today != lastActiveDate {
		if err := d.SetEntriesForPath(ctx, []string{infoPath}, []Entry{
			{Datetime: now, Key: lastActiveKeyPrefix + d.ownAppID, Value: now},
		}); err != nil {
			return fmt.Errorf("publishing last-active: %w", err)
		}

		local.LastActive = now

		if err := saveLocalInfo(ctx, d.localFsys, local); err != nil {
			return fmt.Errorf("persisting last-active: %w", err)
		}

		d.mu.Lock()
		d.local = local
		d.mu.Unlock()
	}

	if local.SupportedVersion < SupportedVersion {
		if err := d.SetEntriesForPath(ctx, []string{infoPath}, []Entry{
			{Datetime: currentDatetime(), Key: supportedVersionPrefix + d.ownAppID, Value: SupportedVersion},
		}); err != nil {
			return fmt.Errorf("publishing supported-version: %w", err)
		}

		local.SupportedVersion = SupportedVersion

		if err := saveLocalInfo(ctx, d.localFsys, local); err != nil {
			return fmt.Errorf("persisting supported-version: %w", err)
		}

		d.mu.Lock()
		d.local = local
		d.mu.Unlock()
	}

	return nil
}
