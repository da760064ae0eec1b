// Package renderer adapts the diagram engine to the validation
// pipeline: it normalizes every engine failure into a single
// displayable message and never lets one escape as a raw error.
package renderer

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
)

// FallbackMessage is shown when the engine rejects text without
// supplying a message of its own.
const FallbackMessage = "Invalid syntax from renderer."

// Engine is the rendering boundary. Errors carry human-readable
// messages; Render's id namespaces element ids inside the produced
// markup.
type Engine interface {
	Parse(text string) error
	Render(id, text string) (string, error)
}

// SyntaxError is the engine's rejection, normalized to one message.
type SyntaxError struct {
	Message string
}

func (e *SyntaxError) Error() string { return e.Message }

// Result is the outcome of one renderer check. Exactly one of Markup
// and Err is meaningful; an all-zero Result is the empty outcome for
// blank input.
type Result struct {
	Markup string
	Err    *SyntaxError
}

// Empty reports whether the check short-circuited on blank input.
func (r Result) Empty() bool { return r.Markup == "" && r.Err == nil }

// Adapter wraps an Engine for the pipeline.
type Adapter struct {
	engine Engine
}

// New returns an adapter over the given engine.
func New(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// Check renders text. Blank input returns the empty Result without
// touching the engine. Engine failures come back as a Result carrying
// the engine's message verbatim, or FallbackMessage when the engine
// supplied none. Each invocation renders under a fresh id so outputs
// never collide in a shared render target namespace.
func (a *Adapter) Check(_ context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{}
	}

	markup, err := a.engine.Render(NewRenderID(), text)
	if err != nil {
		msg := strings.TrimSpace(err.Error())
		if msg == "" {
			msg = FallbackMessage
		}
		return Result{Err: &SyntaxError{Message: msg}}
	}
	return Result{Markup: markup}
}

// NewRenderID generates a render target id from crypto/rand.
func NewRenderID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("mermaid-%x", b)
}
