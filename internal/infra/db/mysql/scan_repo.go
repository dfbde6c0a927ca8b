package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/bryanwahyu/medscan/internal/domain/scans"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Insert the in-flight row
func (r *ScanRepository) Insert(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO medical_scans (id, owner_id, image_url, object_key, status, created_at)
VALUES (?,?,?,?,?,?);
`
	owner := stringOrDash(s.OwnerID)
	status := stringOrDash(string(s.Status))
	_, err := r.db.ExecContext(ctx, q, s.ID, owner, s.ImageURL, s.ObjectKey, status, nowIfZero(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

// MarkCompleted: result + denormalized columns in one UPDATE, only from an in-flight row
func (r *ScanRepository) MarkCompleted(ctx context.Context, id domain.ScanID, res domain.AnalysisResult) error {
	result, err := json.Marshal(res)
	if err != nil {
		return err
	}
	conds := res.DetectedConditions
	if conds == nil {
		conds = []string{}
	}
	conditions, err := json.Marshal(conds)
	if err != nil {
		return err
	}
	const q = `
UPDATE medical_scans
SET status=?, analysis_result=?, confidence_score=?, detected_conditions=?
WHERE id=? AND status IN ('pending','processing');
`
	return r.exec(ctx, q, domain.StatusCompleted, string(result), res.ConfidenceScore, string(conditions), id)
}

func (r *ScanRepository) MarkFailed(ctx context.Context, id domain.ScanID) error {
	const q = `
UPDATE medical_scans
SET status=?, analysis_result=NULL, confidence_score=NULL, detected_conditions=NULL
WHERE id=? AND status IN ('pending','processing');
`
	return r.exec(ctx, q, domain.StatusFailed, id)
}

func (r *ScanRepository) exec(ctx context.Context, q string, args ...any) error {
	out, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update scan: %w", err)
	}
	n, err := out.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get by ID + Owner
func (r *ScanRepository) Get(ctx context.Context, owner string, id domain.ScanID) (*domain.Scan, error) {
	q := `SELECT ` + scanColumns + `
FROM medical_scans
WHERE owner_id=? AND id=? LIMIT 1;`
	s, err := scanScan(r.db.QueryRowContext(ctx, q, owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

// List scans per owner, newest first
func (r *ScanRepository) List(ctx context.Context, owner string, limit int) ([]*domain.Scan, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + scanColumns + `
FROM medical_scans
WHERE (? = '' OR owner_id = ?)
ORDER BY created_at DESC, seq DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, owner, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	out := []*domain.Scan{}
	for rows.Next() {
		s, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
