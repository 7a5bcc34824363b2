package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	wizzhttp "github.com/fyrsmithlabs/wizz/internal/http"
)

const (
	requestTimeout = 30 * time.Second
	// runTimeout covers several sequential completion calls plus publish.
	runTimeout = 5 * time.Minute
)

// client talks to the wizzd HTTP API.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError is a non-200 response decoded from the server's error body.
type apiError struct {
	Status int
	Body   wizzhttp.ErrorResponse
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("server returned status %d: %s", e.Status, e.Body.Error)
	if e.Body.Kind != "" {
		msg += " (" + e.Body.Kind + ")"
	}
	if e.Body.URL != "" {
		msg += "; upstream " + e.Body.URL
		if e.Body.UpstreamStatus != 0 {
			msg += fmt.Sprintf(" returned %d", e.Body.UpstreamStatus)
		}
	}
	if len(e.Body.Written) > 0 {
		msg += fmt.Sprintf("; already written: %s", strings.Join(e.Body.Written, ", "))
	}
	return msg
}

func (c *client) post(ctx context.Context, path string, in, out interface{}) ([]byte, error) {
	reqJSON, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) get(ctx context.Context, path string, query url.Values, out interface{}) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

// do sends req and decodes a 200 body into out. The raw body is returned
// for --json output.
func (c *client) do(req *http.Request, out interface{}) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(body, &apiErr.Body) != nil || apiErr.Body.Error == "" {
			apiErr.Body.Error = strings.TrimSpace(string(body))
		}
		return body, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return body, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return body, nil
}
