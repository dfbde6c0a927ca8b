package mysql

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/bryanwahyu/medscan/internal/domain/analyst"
)

type AnalystRepository struct {
	db *sql.DB
}

func NewAnalystRepository(db *sql.DB) *AnalystRepository {
	return &AnalystRepository{db: db}
}

// Save inserts a raw completion record
func (r *AnalystRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO scan_completions
  (id, owner_id, scan_id, model, raw, created_at)
VALUES (?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  model=VALUES(model), raw=VALUES(raw);
`
	_, err := r.db.ExecContext(ctx, q, a.ID, stringOrDash(a.OwnerID), a.ScanID, stringOrDash(a.Model), a.Raw, nowIfZero(a.CreatedAt))
	return err
}

// LatestByScan returns nil, nil when nothing was recorded
func (r *AnalystRepository) LatestByScan(ctx context.Context, owner, scanID string) (*domain.Analysis, error) {
	const q = `
SELECT id, owner_id, scan_id, model, raw, created_at
FROM scan_completions
WHERE owner_id=? AND scan_id=?
ORDER BY created_at DESC, seq DESC
LIMIT 1;
`
	var a domain.Analysis
	err := r.db.QueryRowContext(ctx, q, owner, scanID).Scan(&a.ID, &a.OwnerID, &a.ScanID, &a.Model, &a.Raw, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}
