package scans

import (
	"time"
)

// ScanID tipe untuk Scan
type ScanID string

// Status enum
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// InFlight reports whether the analysis has not resolved yet.
// pending and processing are the same transient state.
func (s Status) InFlight() bool {
	return s == StatusPending || s == StatusProcessing
}

// IsTerminal reports whether the status can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Icon names the status glyph shown in the history feed.
func (s Status) Icon() string {
	switch {
	case s == StatusCompleted:
		return "check-circle"
	case s.InFlight():
		return "clock"
	case s == StatusFailed:
		return "x-circle"
	default:
		return "alert-circle"
	}
}

// Message is the one-line note shown under a scan that has no result.
func (s Status) Message() string {
	switch {
	case s.InFlight():
		return "Analysis in progress..."
	case s == StatusFailed:
		return "Analysis failed. Please try uploading again."
	default:
		return ""
	}
}

// Disclaimer accompanies every completed analysis.
const Disclaimer = "Medical Disclaimer: This AI analysis is for informational purposes only and should not replace professional medical advice. Always consult with qualified healthcare professionals for diagnosis and treatment."

// RiskLevel enum
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// Label is the badge text shown in the history feed.
func (r RiskLevel) Label() string {
	switch r {
	case RiskLow:
		return "Low Risk"
	case RiskModerate:
		return "Moderate Risk"
	case RiskHigh:
		return "High Risk"
	default:
		return "Unknown"
	}
}

// AnalysisResult value object, parsed from the model completion
type AnalysisResult struct {
	DetectedConditions []string  `json:"detectedConditions"`
	ConfidenceScore    float64   `json:"confidenceScore"`
	RiskLevel          RiskLevel `json:"riskLevel"`
	Analysis           string    `json:"analysis"`
	Recommendations    []string  `json:"recommendations"`
}

// Aggregate Root: Scan
//
// ConfidenceScore and DetectedConditions mirror AnalysisResult and are only
// set together with it.
type Scan struct {
	ID                 ScanID          `json:"id"`
	OwnerID            string          `json:"owner_id"`
	ImageURL           string          `json:"image_url"`
	ObjectKey          string          `json:"object_key,omitempty"`
	Status             Status          `json:"status"`
	AnalysisResult     *AnalysisResult `json:"analysis_result,omitempty"`
	ConfidenceScore    *float64        `json:"confidence_score,omitempty"`
	DetectedConditions []string        `json:"detected_conditions,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Complete applies a parsed result and keeps the denormalized fields in sync.
func (s *Scan) Complete(res AnalysisResult) {
	score := res.ConfidenceScore
	s.Status = StatusCompleted
	s.AnalysisResult = &res
	s.ConfidenceScore = &score
	s.DetectedConditions = append([]string{}, res.DetectedConditions...)
}

// Fail marks the scan failed and clears any result.
func (s *Scan) Fail() {
	s.Status = StatusFailed
	s.AnalysisResult = nil
	s.ConfidenceScore = nil
	s.DetectedConditions = nil
}
