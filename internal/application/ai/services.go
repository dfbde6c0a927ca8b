package ai

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/bryanwahyu/medscan/internal/domain/ai"
	"github.com/bryanwahyu/medscan/internal/domain/scans"
)

// DefaultTimeout bounds one inference call; a timeout is handled like any
// other inference failure.
const DefaultTimeout = 60 * time.Second

type Service struct {
	client  ai.Client
	timeout time.Duration
}

func NewService(client ai.Client, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{client: client, timeout: timeout}
}

// Model name reported by the underlying client.
func (s *Service) Model() string { return s.client.Model() }

// Complete encodes the image and makes exactly one inference call.
func (s *Service) Complete(ctx context.Context, img scans.Image) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Complete(ctx, ai.ImageRequest{
		MediaType: img.MediaType(),
		Base64:    base64.StdEncoding.EncodeToString(img.Data),
	})
}

// Analyze is Complete followed by the lenient result parser.
func (s *Service) Analyze(ctx context.Context, img scans.Image) (scans.AnalysisResult, string, error) {
	raw, err := s.Complete(ctx, img)
	if err != nil {
		return scans.AnalysisResult{}, "", err
	}
	return scans.ParseAnalysis(raw), raw, nil
}
