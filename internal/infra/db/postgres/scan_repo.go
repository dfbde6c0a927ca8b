package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	domain "github.com/bryanwahyu/medscan/internal/domain/scans"
)

type ScanRepository struct{ db *sql.DB }

func NewScanRepository(db *sql.DB) *ScanRepository { return &ScanRepository{db: db} }

// Insert the in-flight row
func (r *ScanRepository) Insert(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO medical_scans (id, owner_id, image_url, object_key, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, stringOrDash(s.OwnerID), s.ImageURL, s.ObjectKey, stringOrDash(string(s.Status)), nowIfZero(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

// MarkCompleted writes analysis_result (jsonb) with confidence_score and
// detected_conditions (text[]) mirrored from it.
func (r *ScanRepository) MarkCompleted(ctx context.Context, id domain.ScanID, res domain.AnalysisResult) error {
	result, err := json.Marshal(res)
	if err != nil {
		return err
	}
	conds := res.DetectedConditions
	if conds == nil {
		conds = []string{}
	}
	const q = `
UPDATE medical_scans
SET status=$1, analysis_result=$2::jsonb, confidence_score=$3, detected_conditions=$4
WHERE id=$5 AND status IN ('pending','processing');`
	return r.exec(ctx, q, domain.StatusCompleted, string(result), res.ConfidenceScore, pq.Array(conds), id)
}

func (r *ScanRepository) MarkFailed(ctx context.Context, id domain.ScanID) error {
	const q = `
UPDATE medical_scans
SET status=$1, analysis_result=NULL, confidence_score=NULL, detected_conditions=NULL
WHERE id=$2 AND status IN ('pending','processing');`
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
WHERE owner_id=$1 AND id::text=$2
LIMIT 1;`
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
WHERE ($1 = '' OR owner_id = $1)
ORDER BY created_at DESC, seq DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, owner, limit)
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
