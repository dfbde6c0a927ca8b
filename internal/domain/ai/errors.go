package ai

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimited indicates the AI gateway answered HTTP 429.
	ErrRateLimited = errors.New("Rate limit exceeded. Please try again later.")

	// ErrQuotaExceeded indicates the AI gateway answered HTTP 402 (credits exhausted).
	ErrQuotaExceeded = errors.New("Payment required. Please add credits to your workspace.")

	// ErrInferenceFailed covers every other unsuccessful inference call.
	ErrInferenceFailed = errors.New("AI analysis failed")
)

// InferenceError carries the gateway status and body. It unwraps to one of
// the sentinels above so callers can use errors.Is.
type InferenceError struct {
	StatusCode int
	Body       string
	Err        error
}

// NewInferenceError classifies a non-success gateway status.
func NewInferenceError(status int, body string) *InferenceError {
	e := &InferenceError{StatusCode: status, Body: body}
	switch status {
	case http.StatusTooManyRequests:
		e.Err = ErrRateLimited
	case http.StatusPaymentRequired:
		e.Err = ErrQuotaExceeded
	default:
		e.Err = ErrInferenceFailed
	}
	return e
}

func (e *InferenceError) Error() string {
	if errors.Is(e.Err, ErrInferenceFailed) {
		return fmt.Sprintf("%v: %s", e.Err, e.Body)
	}
	return e.Err.Error()
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Kind is the short label stored in the failure log.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	default:
		return "inference_failed"
	}
}
