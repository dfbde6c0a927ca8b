package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
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
  seq BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
  id VARCHAR(36) NOT NULL PRIMARY KEY,
  owner_id VARCHAR(191) NOT NULL,
  image_url TEXT NOT NULL,
  object_key VARCHAR(512) NOT NULL DEFAULT '',
  status VARCHAR(16) NOT NULL,
  analysis_result JSON NULL,
  confidence_score DOUBLE NULL,
  detected_conditions JSON NULL,
  created_at DATETIME(3) NOT NULL,
  INDEX idx_medical_scans_owner_created (owner_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS scan_completions (
  seq BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
  id VARCHAR(36) NOT NULL PRIMARY KEY,
  owner_id VARCHAR(191) NOT NULL,
  scan_id VARCHAR(36) NOT NULL,
  model VARCHAR(191) NOT NULL,
  raw LONGTEXT NOT NULL,
  created_at DATETIME(3) NOT NULL,
  INDEX idx_scan_completions_scan (owner_id, scan_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS scan_errors (
  id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  owner_id VARCHAR(191) NOT NULL,
  scan_id VARCHAR(36) NOT NULL,
  phase VARCHAR(32) NOT NULL,
  kind VARCHAR(32) NOT NULL,
  message TEXT NOT NULL,
  created_at DATETIME(3) NOT NULL,
  INDEX idx_scan_errors_scan (owner_id, scan_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the tables if they do not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
