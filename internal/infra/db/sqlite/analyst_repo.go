package sqlite

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

// Save inserts a raw completion
func (r *AnalystRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO scan_completions (id, owner_id, scan_id, model, raw, created_at)
VALUES (?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET raw=excluded.raw, model=excluded.model`
	_, err := r.db.ExecContext(ctx, q, a.ID, a.OwnerID, a.ScanID, a.Model, a.Raw, formatTime(a.CreatedAt))
	return err
}

// LatestByScan returns nil, nil when the scan has no completion.
func (r *AnalystRepository) LatestByScan(ctx context.Context, owner, scanID string) (*domain.Analysis, error) {
	const q = `
SELECT id, owner_id, scan_id, model, raw, created_at
FROM scan_completions
WHERE owner_id=? AND scan_id=?
ORDER BY created_at DESC, rowid DESC
LIMIT 1`
	var (
		a       domain.Analysis
		created string
	)
	err := r.db.QueryRowContext(ctx, q, owner, scanID).Scan(&a.ID, &a.OwnerID, &a.ScanID, &a.Model, &a.Raw, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &a, nil
}
