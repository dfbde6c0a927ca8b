package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNewInferenceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status  int
		body    string
		target  error
		kind    string
		message string
	}{
		{429, "slow down", ErrRateLimited, "rate_limited", "Rate limit exceeded. Please try again later."},
		{402, "no credits", ErrQuotaExceeded, "quota_exceeded", "Payment required. Please add credits to your workspace."},
		{500, "upstream exploded", ErrInferenceFailed, "inference_failed", "AI analysis failed: upstream exploded"},
		{400, "bad image", ErrInferenceFailed, "inference_failed", "AI analysis failed: bad image"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			t.Parallel()
			err := error(NewInferenceError(tt.status, tt.body))
			wrapped := fmt.Errorf("analyze: %w", err)
			if !errors.Is(wrapped, tt.target) {
				t.Errorf("expected errors.Is(%v)", tt.target)
			}
			if got := Kind(wrapped); got != tt.kind {
				t.Errorf("Kind = %q, want %q", got, tt.kind)
			}
			if err.Error() != tt.message {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.message)
			}
			var ie *InferenceError
			if !errors.As(wrapped, &ie) || ie.StatusCode != tt.status {
				t.Errorf("status not preserved")
			}
		})
	}
}

func TestKindOfTransportErrors(t *testing.T) {
	t.Parallel()

	if got := Kind(context.DeadlineExceeded); got != "inference_failed" {
		t.Errorf("timeout kind = %q", got)
	}
}
