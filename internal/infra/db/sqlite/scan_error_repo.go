package sqlite

import (
	"context"
	"database/sql"
	"strings"

	domain "github.com/bryanwahyu/medscan/internal/domain/scanerrors"
)

type ScanErrorRepository struct {
	db *sql.DB
}

func NewScanErrorRepository(db *sql.DB) *ScanErrorRepository { return &ScanErrorRepository{db: db} }

func (r *ScanErrorRepository) Save(ctx context.Context, e *domain.ScanError) error {
	const q = `
INSERT INTO scan_errors (owner_id, scan_id, phase, kind, message, created_at)
VALUES (?,?,?,?,?,?)`
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	res, err := r.db.ExecContext(ctx, q, e.OwnerID, e.ScanID, e.Phase, e.Kind, msg, formatTime(e.CreatedAt))
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

func (r *ScanErrorRepository) ListByScan(ctx context.Context, owner, scanID string, limit int) ([]*domain.ScanError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, owner_id, scan_id, phase, kind, message, created_at
FROM scan_errors
WHERE owner_id=? AND scan_id=?
ORDER BY created_at DESC, id DESC
LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, owner, scanID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.ScanError{}
	for rows.Next() {
		var (
			e       domain.ScanError
			created string
		)
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.ScanID, &e.Phase, &e.Kind, &e.Message, &created); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
