package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/medscan/internal/domain/ai"
	"github.com/bryanwahyu/medscan/internal/infra/ai/prompt"
)

const (
	DefaultModel       = "google/gemini-2.5-flash"
	DefaultTemperature = 0.3
)

// Client talks to any OpenAI-compatible chat completions gateway.
type Client struct {
	*openai.Client
	model       string
	temperature float32
}

type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	// Temperature nil means DefaultTemperature; 0 is honored.
	Temperature *float32
	HTTPClient  *http.Client
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	temp := float32(DefaultTemperature)
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	// the request field is omitempty, so a literal 0 would fall back to the
	// gateway default
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), model: model, temperature: temp}
}

func (c *Client) Model() string { return c.model }

// Complete sends one multimodal request. No retries.
func (c *Client) Complete(ctx context.Context, req ai.ImageRequest) (string, error) {
	chat := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt.GetUserPrompt()},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: prompt.DataURI(req.MediaType, req.Base64)},
					},
				},
			},
		},
	}

	resp, err := c.CreateChatCompletion(ctx, chat)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "{}", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps gateway errors onto the domain sentinels by HTTP status.
// A non-JSON or oddly shaped error body comes back as a RequestError that
// may wrap an empty APIError, so RequestError is checked first.
func classify(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := strings.TrimSpace(string(reqErr.Body))
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return ai.NewInferenceError(reqErr.HTTPStatusCode, body)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return ai.NewInferenceError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	// transport failure or ctx deadline
	return fmt.Errorf("%w: %w", ai.ErrInferenceFailed, err)
}
