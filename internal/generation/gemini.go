// Package generation wraps the Gemini API behind the chat.Generator contract.
package generation

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/kalambet/newsbot/internal/chat"
)

const (
	// DefaultModel matches the model the service shipped with.
	DefaultModel = "gemini-1.5-flash"

	defaultTimeout = 60 * time.Second
)

// Client generates completions with a Gemini model. It layers no retry or
// fallback policy on top of the API: a failed generation fails the request.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// Config configures the Gemini client.
type Config struct {
	APIKey  string
	Model   string        // defaults to DefaultModel
	Timeout time.Duration // per-call; defaults to 60s
}

// New creates a Client backed by the Gemini API.
func New(ctx context.Context, cfg Config) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{client: gc, model: model, timeout: timeout}, nil
}

// Generate sends the assembled prompt to the model and returns the
// completion text. API or transport failures yield an UpstreamError; a
// response with no candidate text yields a MalformedResponseError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &chat.UpstreamError{Op: "generation", Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &chat.MalformedResponseError{Op: "generation", Detail: "response contains no candidate text"}
	}
	return text, nil
}
