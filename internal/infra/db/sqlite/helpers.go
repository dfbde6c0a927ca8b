package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/bryanwahyu/medscan/internal/domain/scans"
)

// fixed width so that lexical order is time order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

const scanColumns = `id, owner_id, image_url, object_key, status, analysis_result, confidence_score, detected_conditions, created_at`

func scanScan(row rowScanner) (*domain.Scan, error) {
	var (
		s          domain.Scan
		result     sql.NullString
		score      sql.NullFloat64
		conditions sql.NullString
		created    string
	)
	if err := row.Scan(&s.ID, &s.OwnerID, &s.ImageURL, &s.ObjectKey, &s.Status, &result, &score, &conditions, &created); err != nil {
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = t

	if result.Valid {
		var res domain.AnalysisResult
		if err := json.Unmarshal([]byte(result.String), &res); err != nil {
			return nil, err
		}
		s.AnalysisResult = &res
	}
	if score.Valid {
		v := score.Float64
		s.ConfidenceScore = &v
	}
	if conditions.Valid {
		if err := json.Unmarshal([]byte(conditions.String), &s.DetectedConditions); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
