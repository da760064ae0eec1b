package api

import (
	"fmt"
	"time"

	"github.com/dusk-indust/mermpad/internal/pipeline"
)

// --- Request / Response Types ---

// CreateSessionResponse returns the new session's ID and its initial
// display state.
type CreateSessionResponse struct {
	ID    string                `json:"id"`
	State pipeline.DisplayState `json:"state"`
}

// SetTextRequest carries one raw editor snapshot.
type SetTextRequest struct {
	Text string `json:"text"`
}

// ExportRequest tunes a PNG export. A zero Scale exports at 1x.
type ExportRequest struct {
	Scale int `json:"scale,omitempty"`
}

// SessionInfo is a point-in-time snapshot of one session.
type SessionInfo struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"createdAt"`
	LastSeen  time.Time             `json:"lastSeen"`
	State     pipeline.DisplayState `json:"state"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
}

// APIError is the JSON error envelope every non-2xx response carries.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api: HTTP %d: %s", e.Status, e.Message)
}

// --- Streaming Types ---

// StreamEvent is one state update received from an SSE subscription.
type StreamEvent struct {
	State pipeline.DisplayState

	// Err is set if the stream encountered an error.
	Err error
}
