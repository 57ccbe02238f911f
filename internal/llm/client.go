// Package llm wraps the Gemini API behind a minimal text-generation
// capability: given a prompt, return raw text or a typed error. Prompt
// construction and response parsing belong to the callers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash-lite-001"

// Client calls the Gemini API. It implements the TextGenerator interfaces
// declared by the categorize and rules packages.
type Client struct {
	model  string
	client *genai.Client
	log    zerolog.Logger
}

// NewClient creates a Gemini client using Application Default Credentials.
func NewClient(ctx context.Context, model string, log zerolog.Logger) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewClient: create genai client: %w", err)
	}

	return &Client{model: model, client: client, log: log}, nil
}

// GenerateText sends the prompt to the model and returns its raw text
// response. Transport and quota failures are mapped onto the package's typed
// errors so callers can distinguish rate limits from malformed requests.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", c.mapError(err)
	}

	text := resp.Text()
	if text == "" {
		c.log.Warn().Str("model", c.model).Msg("Model returned an empty response")
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) mapError(err error) error {
	code := 0

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		code = gErr.Code
	}

	switch code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	default:
		return fmt.Errorf("llm: generate content: %w", err)
	}
}
