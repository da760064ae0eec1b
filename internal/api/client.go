package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dusk-indust/mermpad/internal/pipeline"
)

// Client is a typed HTTP client for the session API.
type Client struct {
	base string
	http *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout for non-streaming calls.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a client for the server at base (scheme://host).
func NewClient(base string, opts ...ClientOption) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession opens a new editing session.
func (c *Client) CreateSession(ctx context.Context) (*CreateSessionResponse, error) {
	var out CreateSessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/sessions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sessions lists every live session.
func (c *Client) Sessions(ctx context.Context) ([]SessionInfo, error) {
	var out []SessionInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetText feeds one editor snapshot into the session.
func (c *Client) SetText(ctx context.Context, id, text string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/sessions/"+id+"/text", SetTextRequest{Text: text}, nil)
}

// State reads the session's current display state.
func (c *Client) State(ctx context.Context, id string) (pipeline.DisplayState, error) {
	var out pipeline.DisplayState
	err := c.doJSON(ctx, http.MethodGet, "/api/sessions/"+id+"/state", nil, &out)
	return out, err
}

// DeleteSession closes and removes the session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/sessions/"+id, nil, nil)
}

// Health probes the server.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/healthz", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export downloads the session's current render as PNG bytes. A scale
// above 1 multiplies the raster resolution.
func (c *Client) Export(ctx context.Context, id string, scale int) ([]byte, error) {
	var body io.Reader
	if scale > 1 {
		data, err := json.Marshal(ExportRequest{Scale: scale})
		if err != nil {
			return nil, fmt.Errorf("api: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/sessions/"+id+"/export", body)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "image/png")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read export: %w", err)
	}
	return data, nil
}

// Watch opens the session's SSE stream and delivers display states
// until ctx is cancelled or the stream ends. The stream's lifetime is
// governed by ctx, not the client timeout.
func (c *Client) Watch(ctx context.Context, id string) (<-chan StreamEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/sessions/"+id+"/events", nil)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	stream := *c.http
	stream.Timeout = 0
	resp, err := stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: watch: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return ReadEvents(ctx, resp.Body), nil
}

// doJSON performs one JSON round trip. A nil in sends no body; a nil
// out discards the response body.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("api: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: decode response: %w", err)
		}
	}
	return nil
}

// decodeError turns a non-2xx response into an *APIError when the body
// carries the standard envelope, or a plain error otherwise.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return &apiErr
	}
	return fmt.Errorf("api: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
}
