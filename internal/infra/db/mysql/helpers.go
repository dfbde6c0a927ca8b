package mysql

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/bryanwahyu/medscan/internal/domain/scans"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

type rowScanner interface {
	Scan(dest ...any) error
}

const scanColumns = `id, owner_id, image_url, object_key, status, analysis_result, confidence_score, detected_conditions, created_at`

func scanScan(row rowScanner) (*domain.Scan, error) {
	var (
		s          domain.Scan
		result     []byte
		score      sql.NullFloat64
		conditions []byte
	)
	if err := row.Scan(&s.ID, &s.OwnerID, &s.ImageURL, &s.ObjectKey, &s.Status, &result, &score, &conditions, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	if result != nil {
		var res domain.AnalysisResult
		if err := json.Unmarshal(result, &res); err != nil {
			return nil, err
		}
		s.AnalysisResult = &res
	}
	if score.Valid {
		v := score.Float64
		s.ConfidenceScore = &v
	}
	if conditions != nil {
		if err := json.Unmarshal(conditions, &s.DetectedConditions); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
