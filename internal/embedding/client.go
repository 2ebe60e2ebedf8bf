// Package embedding provides a client for a remote embeddings API
// (Jina-compatible: bearer auth, OpenAI-style request and response shapes).
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kalambet/newsbot/internal/chat"
)

const defaultTimeout = 15 * time.Second

// Client communicates with the embeddings service over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// Config configures the embeddings client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration // per-call; defaults to 15s
}

// New creates a Client targeting the given embeddings endpoint.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// embedRequest is the JSON body for POST /v1/embeddings.
type embedRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

// embedResponse mirrors the JSON returned by POST /v1/embeddings.
type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for the given text.
//
// A non-success status or transport failure yields an UpstreamError
// (possibly transient); a response without the expected vector field yields
// a MalformedResponseError (a contract break with the provider). No retries
// are performed at this layer.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(embedRequest{Input: text, Model: c.model})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &chat.UpstreamError{Op: "embedding", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &chat.UpstreamError{Op: "embedding", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &chat.MalformedResponseError{Op: "embedding", Detail: fmt.Sprintf("decoding response: %v", err)}
	}

	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, &chat.MalformedResponseError{Op: "embedding", Detail: "response missing embedding vector"}
	}

	return result.Data[0].Embedding, nil
}
