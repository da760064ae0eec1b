// Package pipeline coordinates the debounced dual validation of
// diagram text: a renderer check and an AI check race per generation,
// their outcomes merge by priority, and the result is published as a
// single DisplayState.
package pipeline

import (
	"context"

	"github.com/dusk-indust/mermpad/internal/aicheck"
	"github.com/dusk-indust/mermpad/internal/renderer"
)

// DisplayState is the externally observable merged result. ErrorMessage
// is nil when there is nothing to report; busy flags mirror the two
// in-flight checks of the active generation.
type DisplayState struct {
	VectorMarkup string  `json:"vectorMarkup"`
	ErrorMessage *string `json:"errorMessage"`
	Rendering    bool    `json:"rendering"`
	Checking     bool    `json:"checking"`
}

// RenderChecker is the renderer adapter boundary.
type RenderChecker interface {
	Check(ctx context.Context, text string) renderer.Result
}

var _ RenderChecker = (*renderer.Adapter)(nil)

// genResults accumulates the two check outcomes of one generation.
type genResults struct {
	renderDone bool
	render     renderer.Result
	aiDone     bool
	ai         aicheck.Verdict
}

// errorMessage merges what is known so far. An AI Invalid verdict
// outranks a renderer error; an Indeterminate verdict falls back to
// the renderer silently.
func (r genResults) errorMessage() *string {
	if r.aiDone && r.ai.Kind == aicheck.VerdictInvalid {
		return strPtr(r.ai.Message)
	}
	if r.renderDone && r.render.Err != nil {
		return strPtr(r.render.Err.Message)
	}
	return nil
}

func strPtr(s string) *string { return &s }
