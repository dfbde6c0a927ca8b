package httpserver

import (
	"time"

	"github.com/bryanwahyu/medscan/internal/domain/analyst"
	"github.com/bryanwahyu/medscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/medscan/internal/domain/scans"
)

// ScanView is one entry of the history feed.
type ScanView struct {
	ID            string    `json:"id"`
	ImageURL      string    `json:"image_url"`
	Status        string    `json:"status"`
	StatusIcon    string    `json:"status_icon"`
	StatusMessage string    `json:"status_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	// set only for completed scans
	RiskLevel          string   `json:"risk_level,omitempty"`
	RiskLabel          string   `json:"risk_label,omitempty"`
	ConfidenceScore    *float64 `json:"confidence_score,omitempty"`
	DetectedConditions []string `json:"detected_conditions,omitempty"`
	Analysis           string   `json:"analysis,omitempty"`
	Recommendations    []string `json:"recommendations,omitempty"`
	Disclaimer         string   `json:"disclaimer,omitempty"`
}

func NewScanView(s *domain.Scan) ScanView {
	v := ScanView{
		ID:            string(s.ID),
		ImageURL:      s.ImageURL,
		Status:        string(s.Status),
		StatusIcon:    s.Status.Icon(),
		StatusMessage: s.Status.Message(),
		CreatedAt:     s.CreatedAt,
	}
	if s.Status != domain.StatusCompleted || s.AnalysisResult == nil {
		return v
	}
	res := s.AnalysisResult
	v.RiskLevel = string(res.RiskLevel)
	v.RiskLabel = res.RiskLevel.Label()
	v.ConfidenceScore = s.ConfidenceScore
	v.DetectedConditions = s.DetectedConditions
	v.Analysis = res.Analysis
	v.Recommendations = res.Recommendations
	v.Disclaimer = domain.Disclaimer
	return v
}

func NewScanViews(list []*domain.Scan) []ScanView {
	out := make([]ScanView, 0, len(list))
	for _, s := range list {
		out = append(out, NewScanView(s))
	}
	return out
}

// AcceptedView is the 202 body of an upload.
type AcceptedView struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	ImageURL string `json:"image_url"`
}

type ErrorView struct {
	Phase     string    `json:"phase"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func NewErrorViews(list []*scanerrors.ScanError) []ErrorView {
	out := make([]ErrorView, 0, len(list))
	for _, e := range list {
		out = append(out, ErrorView{Phase: string(e.Phase), Kind: e.Kind, Message: e.Message, CreatedAt: e.CreatedAt})
	}
	return out
}

type CompletionView struct {
	ScanID    string    `json:"scan_id"`
	Model     string    `json:"model"`
	Raw       string    `json:"raw"`
	CreatedAt time.Time `json:"created_at"`
}

func NewCompletionView(a *analyst.Analysis) CompletionView {
	return CompletionView{ScanID: a.ScanID, Model: a.Model, Raw: a.Raw, CreatedAt: a.CreatedAt}
}
