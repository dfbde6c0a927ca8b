package postgres

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/medscan/internal/domain/scanerrors"
)

type ScanErrorRepository struct{ db *sql.DB }

func NewScanErrorRepository(db *sql.DB) *ScanErrorRepository { return &ScanErrorRepository{db: db} }

func (r *ScanErrorRepository) Save(ctx context.Context, e *domain.ScanError) error {
	const q = `
INSERT INTO scan_errors
  (owner_id, scan_id, phase, kind, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id;`
	return r.db.QueryRowContext(ctx, q,
		stringOrDash(e.OwnerID), e.ScanID, stringOrDash(string(e.Phase)),
		stringOrDash(e.Kind), stringOrDash(e.Message), nowIfZero(e.CreatedAt),
	).Scan(&e.ID)
}

func (r *ScanErrorRepository) ListByScan(ctx context.Context, owner, scanID string, limit int) ([]*domain.ScanError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, owner_id, scan_id, phase, kind, message, created_at
FROM scan_errors
WHERE owner_id = $1 AND scan_id::text = $2
ORDER BY created_at DESC, id DESC
LIMIT $3;`
	rows, err := r.db.QueryContext(ctx, q, owner, scanID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.ScanError{}
	for rows.Next() {
		var e domain.ScanError
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.ScanID, &e.Phase, &e.Kind, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, &e)
	}
	return out, rows.Err()
}
