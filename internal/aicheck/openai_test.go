package aicheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completionBody wraps content in a minimal chat-completions response.
func completionBody(content string) string {
	quoted, _ := json.Marshal(content)
	return fmt.Sprintf(`{"id":"chatcmpl-test","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}]}`, quoted)
}

// newCheckerServer serves canned completion content and records the
// last request body.
func newCheckerServer(t *testing.T, content string) (*httptest.Server, *string) {
	t.Helper()
	var lastBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		lastBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody(content))
	}))
	t.Cleanup(srv.Close)
	return srv, &lastBody
}

func newTestChecker(srv *httptest.Server, opts ...Option) *OpenAIChecker {
	base := []Option{WithBaseURL(srv.URL), WithAPIKey("test-key")}
	return NewOpenAIChecker(append(base, opts...)...)
}

func TestOpenAIChecker_ValidVerdict(t *testing.T) {
	srv, lastBody := newCheckerServer(t, `{"isValid": true, "errors": [], "errorMessage": ""}`)
	c := newTestChecker(srv)

	v := c.Check(context.Background(), "graph TD\nA-->B")
	assert.Equal(t, Valid(), v)

	// The diagram text must reach the model unmodified, inside the
	// fixed instruction wrapper.
	assert.Contains(t, *lastBody, "graph TD")
	assert.Contains(t, *lastBody, "mermaid")
}

func TestOpenAIChecker_InvalidVerdictCarriesMessage(t *testing.T) {
	srv, _ := newCheckerServer(t, `{"isValid": false, "errors": ["incomplete arrow"], "errorMessage": "Edge on line 2 has no target."}`)
	c := newTestChecker(srv)

	v := c.Check(context.Background(), "graph TD\nA--")
	assert.Equal(t, VerdictInvalid, v.Kind)
	assert.Equal(t, "Edge on line 2 has no target.", v.Message)
}

func TestOpenAIChecker_ProseCompletionIsIndeterminate(t *testing.T) {
	srv, _ := newCheckerServer(t, "Looks good to me!")
	c := newTestChecker(srv)

	v := c.Check(context.Background(), "graph TD\nA-->B")
	assert.Equal(t, Indeterminate(), v)
}

func TestOpenAIChecker_TransportFailureIsIndeterminate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewOpenAIChecker(WithBaseURL(url), WithAPIKey("test-key"))
	v := c.Check(context.Background(), "graph TD\nA-->B")
	assert.Equal(t, Indeterminate(), v)
}

func TestOpenAIChecker_ServerErrorIsIndeterminate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewOpenAIChecker(WithBaseURL(srv.URL), WithAPIKey("test-key"))
	v := c.Check(context.Background(), "graph TD\nA-->B")
	assert.Equal(t, Indeterminate(), v)
}

func TestOpenAIChecker_TimeoutIsIndeterminate(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := newTestChecker(srv, WithTimeout(100*time.Millisecond))

	start := time.Now()
	v := c.Check(context.Background(), "graph TD\nA-->B")
	require.Less(t, time.Since(start), 2*time.Second, "timeout must bound the call")
	assert.Equal(t, Indeterminate(), v)
}

func TestOpenAIChecker_EmptyChoicesIsIndeterminate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl-test","object":"chat.completion","choices":[]}`)
	}))
	t.Cleanup(srv.Close)

	c := NewOpenAIChecker(WithBaseURL(srv.URL), WithAPIKey("test-key"))
	v := c.Check(context.Background(), "graph TD\nA-->B")
	assert.Equal(t, Indeterminate(), v)
}

func TestDisabled_AlwaysIndeterminate(t *testing.T) {
	v := Disabled{}.Check(context.Background(), "graph TD\nA-->B")
	assert.Equal(t, Indeterminate(), v)
}

func TestWithModel_AppearsInRequest(t *testing.T) {
	srv, lastBody := newCheckerServer(t, `{"isValid": true, "errors": [], "errorMessage": ""}`)
	c := newTestChecker(srv, WithModel("gpt-4.1"))

	c.Check(context.Background(), "graph TD\nA-->B")
	require.NotEmpty(t, *lastBody)
	assert.True(t, strings.Contains(*lastBody, `"model":"gpt-4.1"`) || strings.Contains(*lastBody, `"model": "gpt-4.1"`))
}
