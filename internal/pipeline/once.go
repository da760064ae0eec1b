package pipeline

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/mermpad/internal/aicheck"
	"github.com/dusk-indust/mermpad/internal/renderer"
)

// Outcome is the merged result of one un-debounced validation pass,
// used by the CLI and tool surfaces.
type Outcome struct {
	Markup  string  `json:"markup,omitempty"`
	Message *string `json:"message"`
	Source  string  `json:"source,omitempty"` // "ai" or "renderer" when Message is set
}

// Valid reports whether the pass found nothing to complain about.
func (o Outcome) Valid() bool { return o.Message == nil }

// CheckOnce runs both checks for text immediately, without debounce or
// generations, and merges them by the same priority rule the
// coordinator uses. Blank text returns the zero Outcome.
func CheckOnce(ctx context.Context, render RenderChecker, ai aicheck.Checker, text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return Outcome{}
	}
	if ai == nil {
		ai = aicheck.Disabled{}
	}

	var (
		res renderer.Result
		v   aicheck.Verdict
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res = render.Check(gctx, text)
		return nil
	})
	g.Go(func() error {
		v = ai.Check(gctx, text)
		return nil
	})
	_ = g.Wait()

	merged := genResults{renderDone: true, render: res, aiDone: true, ai: v}
	out := Outcome{Message: merged.errorMessage()}
	if res.Err == nil {
		out.Markup = res.Markup
	}
	if out.Message != nil {
		if v.Kind == aicheck.VerdictInvalid {
			out.Source = "ai"
		} else {
			out.Source = "renderer"
		}
	}
	return out
}
