package scanerrors

import "time"

// Phase of the analysis chain where the failure happened
type Phase string

const (
	PhaseInference Phase = "inference"
	PhaseFinalize  Phase = "finalize"
)

// ScanError represents a persisted analysis failure entry
type ScanError struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ScanID    string    `json:"scan_id"`
	Phase     Phase     `json:"phase"`
	Kind      string    `json:"kind"` // rate_limited | quota_exceeded | inference_failed | persistence
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
