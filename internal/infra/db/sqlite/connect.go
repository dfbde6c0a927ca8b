package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) the database file at path and applies the schema.
// Pass ":memory:" for an in-memory database (used by tests).
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// single connection: ":memory:" is per-connection and writers would lock each other
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode=WAL"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS medical_scans (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		image_url TEXT NOT NULL,
		object_key TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		analysis_result TEXT,
		confidence_score REAL,
		detected_conditions TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_medical_scans_owner_created ON medical_scans (owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS scan_completions (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		scan_id TEXT NOT NULL,
		model TEXT NOT NULL,
		raw TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_completions_scan ON scan_completions (owner_id, scan_id)`,
	`CREATE TABLE IF NOT EXISTS scan_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL,
		scan_id TEXT NOT NULL,
		phase TEXT NOT NULL,
		kind TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_errors_scan ON scan_errors (owner_id, scan_id)`,
}

// EnsureSchema creates tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
