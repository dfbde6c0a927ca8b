package analyst

import "time"

// AnalysisID identifier type
type AnalysisID string

// Analysis is the raw model completion kept for auditing, since the
// parsed result is lossy.
type Analysis struct {
	ID        AnalysisID `json:"id"`
	OwnerID   string     `json:"owner_id"`
	ScanID    string     `json:"scan_id"`
	Model     string     `json:"model"`
	Raw       string     `json:"raw"`
	CreatedAt time.Time  `json:"created_at"`
}
