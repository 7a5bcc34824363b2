package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fyrsmithlabs/wizz/internal/failure"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	// maxResponseBytes caps a completion body read into memory.
	maxResponseBytes = 8 << 20
)

// OpenRouterClient talks to an OpenAI-compatible chat completions endpoint.
type OpenRouterClient struct {
	opts       Options
	url        string
	httpClient *http.Client
}

// chatRequest is the request body of POST /chat/completions.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// chatResponse is the subset of the completion response wizz reads.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenRouterClient creates a client for one persona.
func NewOpenRouterClient(opts Options) (*OpenRouterClient, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &OpenRouterClient{
		opts: opts,
		url:  base + "/chat/completions",
		// The per-call context carries the deadline; no client-level timeout.
		httpClient: &http.Client{},
	}, nil
}

// WithHTTPClient replaces the underlying HTTP client. Intended for tests.
func (c *OpenRouterClient) WithHTTPClient(hc *http.Client) *OpenRouterClient {
	c.httpClient = hc
	return c
}

// Model returns the model identifier sent with every request.
func (c *OpenRouterClient) Model() string {
	return c.opts.Model
}

// Complete sends messages and returns choices[0].message.content.
// A response without choices yields an empty string, not an error.
func (c *OpenRouterClient) Complete(ctx context.Context, messages []Message) (string, error) {
	return call(ctx, &c.opts, "llm.complete", c.url, func(ctx context.Context) (string, error) {
		return c.do(ctx, messages)
	})
}

func (c *OpenRouterClient) do(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.opts.Model,
		Messages:    messages,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey.Value())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &failure.Error{Kind: failure.KindUpstream, Op: "llm.complete", URL: c.url, Err: fmt.Errorf("fetch failed: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &failure.Error{
			Kind:   failure.KindUpstream,
			Op:     "llm.complete",
			URL:    c.url,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", upstreamMessage(raw)),
			Raw:    string(raw),
		}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &failure.Error{
			Kind: failure.KindUpstream,
			Op:   "llm.complete",
			URL:  c.url,
			Err:  fmt.Errorf("failed to parse response: %w", err),
			Raw:  string(raw),
		}
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}

// upstreamMessage extracts the most specific error text from a failed body:
// error.message, then a string error, then the error value as JSON, then the body.
func upstreamMessage(body []byte) string {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Error) == 0 || string(env.Error) == "null" {
		if s := strings.TrimSpace(string(body)); s != "" {
			return s
		}
		return "empty error response"
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil && s != "" {
		return s
	}
	return string(env.Error)
}

var _ Client = (*OpenRouterClient)(nil)
