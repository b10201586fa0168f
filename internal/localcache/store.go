// Package localcache is a purely local, non-authoritative SQLite index of
// AppData observations. It is never consulted when merging entries — it
// exists only so the CLI can answer "who has been active on this directory,
// and when" without rescanning every peer subtree. Modeled on the teacher's
// BaselineManager: sole-writer SQLite, WAL, goose migrations.
package localcache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO
)

const (
	sqlInsertObservation = `INSERT INTO app_activity_log
		(sync_type, collection, app_id, version, last_active, supported_version, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	sqlHistoryForCollection = `SELECT app_id, version, last_active, supported_version, observed_at
		FROM app_activity_log
		WHERE sync_type = ? AND collection = ?
		ORDER BY observed_at ASC, id ASC`
)

// Observation is one row recorded by RecordActivity.
type Observation struct {
	AppID            string
	Version          int
	LastActive       *string
	SupportedVersion *int
	ObservedAt       string
}

// Store is the sole writer to the local secondary index database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if absent) the SQLite database at dbPath and runs
// pending migrations.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("localcache: opening database %s: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordActivity appends one observation row per call. Best-effort by
// design: GetActiveApps logs and discards a write failure rather than
// surfacing it, since this index is never authoritative.
func (s *Store) RecordActivity(ctx context.Context, syncType, collection string, obs Observation) error {
	_, err := s.db.ExecContext(ctx, sqlInsertObservation,
		syncType, collection, obs.AppID, obs.Version, obs.LastActive, obs.SupportedVersion, obs.ObservedAt)
	if err != nil {
		return fmt.Errorf("localcache: recording activity for %s: %w", obs.AppID, err)
	}

	return nil
}

// History returns every recorded observation for (syncType, collection), in
// the order they were observed.
func (s *Store) History(ctx context.Context, syncType, collection string) ([]Observation, error) {
	rows, err := s.db.QueryContext(ctx, sqlHistoryForCollection, syncType, collection)
	if err != nil {
		return nil, fmt.Errorf("localcache: loading history: %w", err)
	}
	defer rows.Close()

	var out []Observation

	for rows.Next() {
		var obs Observation

		if err := rows.Scan(&obs.AppID, &obs.Version, &obs.LastActive, &obs.SupportedVersion, &obs.ObservedAt); err != nil {
			return nil, fmt.Errorf("localcache: scanning history row: %w", err)
		}

		out = append(out, obs)
	}

	return out, rows.Err()
}
