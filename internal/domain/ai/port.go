package ai

import "context"

// ImageRequest is one multimodal completion request.
type ImageRequest struct {
	MediaType string
	// Base64 is the standard-encoded image payload.
	Base64 string
}

// Client sends a single completion request and returns the raw text. It
// never retries.
type Client interface {
	Complete(ctx context.Context, req ImageRequest) (string, error)
	Model() string
}
