package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS medical_scans (
  seq BIGSERIAL,
  id UUID PRIMARY KEY,
  owner_id TEXT NOT NULL,
  image_url TEXT NOT NULL,
  object_key TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL CHECK (status IN ('pending','processing','completed','failed')),
  analysis_result JSONB,
  confidence_score DOUBLE PRECISION,
  detected_conditions TEXT[],
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_medical_scans_owner_created ON medical_scans (owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS scan_completions (
  seq BIGSERIAL,
  id UUID PRIMARY KEY,
  owner_id TEXT NOT NULL,
  scan_id UUID NOT NULL,
  model TEXT NOT NULL,
  raw TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_completions_scan ON scan_completions (owner_id, scan_id)`,
	`CREATE TABLE IF NOT EXISTS scan_errors (
  id BIGSERIAL PRIMARY KEY,
  owner_id TEXT NOT NULL,
  scan_id UUID NOT NULL,
  phase TEXT NOT NULL,
  kind TEXT NOT NULL,
  message TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_errors_scan ON scan_errors (owner_id, scan_id)`,
}

// EnsureSchema creates tables and indexes if they do not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
