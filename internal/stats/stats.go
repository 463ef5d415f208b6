// Package stats persists the Statistics Store (SPEC_FULL.md §3 ADDED
// StatSnapshot, §4.11 "Emit statistics"): kills, resources gathered,
// uptime, breaks taken, and every reported error-log entry, across
// restarts. The error_log table has no row cap.
// Grounded on data.go's Statistics struct, widened with
// persistence via database/sql + github.com/mattn/go-sqlite3 (no pack
// repo persists its stats anywhere; sqlite3 is the retrieval pack's one
// embedded-database dependency, matching spec.md's "persists across
// restarts" requirement without standing up an external database).
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Snapshot is one persisted row of bot statistics.
type Snapshot struct {
	RecordedAt        time.Time
	Kills             int
	ResourcesGathered int
	UptimeSeconds     int64
	BreaksTaken       int
	ErrorsEscalated   int
}

// ErrorLogRow is one persisted error-log entry.
type ErrorLogRow struct {
	ID         string
	OccurredAt time.Time
	TaskName   string
	Severity   string
	Message    string
}

const schema = `
CREATE TABLE IF NOT EXISTS stat_snapshots (
	recorded_at        DATETIME NOT NULL,
	kills              INTEGER NOT NULL,
	resources_gathered INTEGER NOT NULL,
	uptime_seconds     INTEGER NOT NULL,
	breaks_taken       INTEGER NOT NULL,
	errors_escalated   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS error_log (
	id          TEXT PRIMARY KEY,
	occurred_at DATETIME NOT NULL,
	task_name   TEXT NOT NULL,
	severity    TEXT NOT NULL,
	message     TEXT NOT NULL
);
`

// Store wraps a SQLite-backed statistics database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path and ensures
// its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("stats: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("stats: migrate %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSnapshot inserts a new statistics row.
func (s *Store) RecordSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stat_snapshots (recorded_at, kills, resources_gathered, uptime_seconds, breaks_taken, errors_escalated)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.RecordedAt, snap.Kills, snap.ResourcesGathered, snap.UptimeSeconds, snap.BreaksTaken, snap.ErrorsEscalated)
	return err
}

// LatestSnapshot returns the most recently recorded statistics row.
func (s *Store) LatestSnapshot(ctx context.Context) (Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT recorded_at, kills, resources_gathered, uptime_seconds, breaks_taken, errors_escalated
		 FROM stat_snapshots ORDER BY recorded_at DESC LIMIT 1`)

	var snap Snapshot
	err := row.Scan(&snap.RecordedAt, &snap.Kills, &snap.ResourcesGathered, &snap.UptimeSeconds, &snap.BreaksTaken, &snap.ErrorsEscalated)
	if err == sql.ErrNoRows {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// RecordError persists one error-log entry, keyed by its
// correlation id (errhandler.Entry.ID).
func (s *Store) RecordError(ctx context.Context, row ErrorLogRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO error_log (id, occurred_at, task_name, severity, message) VALUES (?, ?, ?, ?, ?)`,
		row.ID, row.OccurredAt, row.TaskName, row.Severity, row.Message)
	return err
}

// RecentErrors returns the most recent limit error-log rows, newest first.
func (s *Store) RecentErrors(ctx context.Context, limit int) ([]ErrorLogRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, occurred_at, task_name, severity, message FROM error_log ORDER BY occurred_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ErrorLogRow
	for rows.Next() {
		var r ErrorLogRow
		if err := rows.Scan(&r.ID, &r.OccurredAt, &r.TaskName, &r.Severity, &r.Message); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
