package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/mermpad/internal/aicheck"
	"github.com/dusk-indust/mermpad/internal/diagram"
	"github.com/dusk-indust/mermpad/internal/renderer"
)

// mockRender implements RenderChecker with a configurable function.
type mockRender struct {
	check func(ctx context.Context, text string) renderer.Result
	calls atomic.Int32

	mu    sync.Mutex
	texts []string
}

func (m *mockRender) Check(ctx context.Context, text string) renderer.Result {
	m.calls.Add(1)
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	if m.check == nil {
		return renderer.Result{Markup: "<svg/>"}
	}
	return m.check(ctx, text)
}

func (m *mockRender) seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// mockAI implements aicheck.Checker with a configurable function.
type mockAI struct {
	check func(ctx context.Context, text string) aicheck.Verdict
	calls atomic.Int32
}

func (m *mockAI) Check(ctx context.Context, text string) aicheck.Verdict {
	m.calls.Add(1)
	if m.check == nil {
		return aicheck.Valid()
	}
	return m.check(ctx, text)
}

func newTestCoordinator(t *testing.T, render RenderChecker, ai aicheck.Checker, delay time.Duration) *Coordinator {
	t.Helper()
	c := New(render, ai, WithDelay(delay))
	t.Cleanup(c.Close)
	return c
}

// waitState reads the subscription until a state matches.
func waitState(t *testing.T, ch <-chan DisplayState, desc string, match func(DisplayState) bool) DisplayState {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				t.Fatalf("subscription closed while waiting for %s", desc)
			}
			if match(st) {
				return st
			}
		case <-deadline:
			t.Fatalf("no state matching %s within 5s", desc)
		}
	}
}

func settled(st DisplayState) bool { return !st.Rendering && !st.Checking }

func msgIs(want string) func(DisplayState) bool {
	return func(st DisplayState) bool {
		return settled(st) && st.ErrorMessage != nil && *st.ErrorMessage == want
	}
}

func TestCoordinator_BlankInputBypassesAdapters(t *testing.T) {
	render := &mockRender{}
	ai := &mockAI{}
	c := newTestCoordinator(t, render, ai, 10*time.Millisecond)

	for _, text := range []string{"", "   ", "\n\t\n"} {
		c.SetText(text)
		st := c.State()
		assert.Equal(t, DisplayState{}, st, "blank input %q must publish the empty state at once", text)
	}

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), render.calls.Load(), "renderer must not run for blank input")
	assert.Equal(t, int32(0), ai.calls.Load(), "AI checker must not run for blank input")
}

func TestCoordinator_DebounceDeliversOnlyFinalEdit(t *testing.T) {
	render := &mockRender{}
	ai := &mockAI{}
	c := newTestCoordinator(t, render, ai, 60*time.Millisecond)
	ch, cancel := c.Subscribe()
	defer cancel()

	c.SetText("g")
	c.SetText("gra")
	c.SetText("graph TD\nA")
	c.SetText("graph TD\nA-->B")

	waitState(t, ch, "settled state", settled)
	assert.Equal(t, []string{"graph TD\nA-->B"}, render.seen(), "intermediate edits must never reach the adapters")
	assert.Equal(t, int32(1), ai.calls.Load())
}

func TestCoordinator_MergePriority(t *testing.T) {
	tests := []struct {
		name     string
		render   renderer.Result
		ai       aicheck.Verdict
		wantMsg  *string
		wantSVG  string
	}{
		{
			"both clean",
			renderer.Result{Markup: "<svg>ok</svg>"},
			aicheck.Valid(),
			nil,
			"<svg>ok</svg>",
		},
		{
			"renderer error with AI valid",
			renderer.Result{Err: &renderer.SyntaxError{Message: "X"}},
			aicheck.Valid(),
			strPtr("X"),
			"",
		},
		{
			"AI invalid with renderer clean",
			renderer.Result{Markup: "<svg>ok</svg>"},
			aicheck.Invalid("Y"),
			strPtr("Y"),
			"<svg>ok</svg>",
		},
		{
			"AI invalid outranks renderer error",
			renderer.Result{Err: &renderer.SyntaxError{Message: "X"}},
			aicheck.Invalid("Y"),
			strPtr("Y"),
			"",
		},
		{
			"AI indeterminate falls back to renderer error",
			renderer.Result{Err: &renderer.SyntaxError{Message: "X"}},
			aicheck.Indeterminate(),
			strPtr("X"),
			"",
		},
		{
			"AI indeterminate with renderer clean",
			renderer.Result{Markup: "<svg>ok</svg>"},
			aicheck.Indeterminate(),
			nil,
			"<svg>ok</svg>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			render := &mockRender{check: func(context.Context, string) renderer.Result { return tt.render }}
			ai := &mockAI{check: func(context.Context, string) aicheck.Verdict { return tt.ai }}
			c := newTestCoordinator(t, render, ai, 5*time.Millisecond)
			ch, cancel := c.Subscribe()
			defer cancel()

			c.SetText("graph TD\nA-->B")
			st := waitState(t, ch, "settled state", settled)

			if tt.wantMsg == nil {
				assert.Nil(t, st.ErrorMessage)
			} else {
				require.NotNil(t, st.ErrorMessage)
				assert.Equal(t, *tt.wantMsg, *st.ErrorMessage)
			}
			assert.Equal(t, tt.wantSVG, st.VectorMarkup)
		})
	}
}

func TestCoordinator_BothCompletionOrdersTolerated(t *testing.T) {
	t.Run("render first, AI overrides at the end", func(t *testing.T) {
		aiGate := make(chan struct{})
		render := &mockRender{check: func(context.Context, string) renderer.Result {
			return renderer.Result{Err: &renderer.SyntaxError{Message: "X"}}
		}}
		ai := &mockAI{check: func(ctx context.Context, _ string) aicheck.Verdict {
			<-aiGate
			return aicheck.Invalid("Y")
		}}
		c := newTestCoordinator(t, render, ai, 5*time.Millisecond)
		ch, cancel := c.Subscribe()
		defer cancel()

		c.SetText("graph TD\nA--")

		mid := waitState(t, ch, "render-done state", func(st DisplayState) bool {
			return !st.Rendering && st.Checking
		})
		require.NotNil(t, mid.ErrorMessage)
		assert.Equal(t, "X", *mid.ErrorMessage, "renderer message shows while the AI is still out")

		close(aiGate)
		final := waitState(t, ch, "settled state", msgIs("Y"))
		assert.False(t, final.Checking)
	})

	t.Run("AI first, renderer error cannot displace the AI message", func(t *testing.T) {
		renderGate := make(chan struct{})
		render := &mockRender{check: func(context.Context, string) renderer.Result {
			<-renderGate
			return renderer.Result{Err: &renderer.SyntaxError{Message: "X"}}
		}}
		ai := &mockAI{check: func(context.Context, string) aicheck.Verdict {
			return aicheck.Invalid("Y")
		}}
		c := newTestCoordinator(t, render, ai, 5*time.Millisecond)
		ch, cancel := c.Subscribe()
		defer cancel()

		c.SetText("graph TD\nA--")

		mid := waitState(t, ch, "ai-done state", func(st DisplayState) bool {
			return st.Rendering && !st.Checking
		})
		require.NotNil(t, mid.ErrorMessage)
		assert.Equal(t, "Y", *mid.ErrorMessage)

		close(renderGate)
		final := waitState(t, ch, "settled state", msgIs("Y"))
		assert.Empty(t, final.VectorMarkup, "failed render clears the markup")
	})
}

func TestCoordinator_StaleGenerationNeverApplies(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	render := &mockRender{check: func(ctx context.Context, text string) renderer.Result {
		if text == "graph TD\nOld" {
			started <- struct{}{}
			select {
			case <-release:
			case <-ctx.Done():
			}
			return renderer.Result{Markup: "<svg>OLD</svg>"}
		}
		return renderer.Result{Markup: "<svg>NEW</svg>"}
	}}
	ai := &mockAI{}
	c := newTestCoordinator(t, render, ai, 10*time.Millisecond)
	ch, cancel := c.Subscribe()
	defer cancel()

	c.SetText("graph TD\nOld")
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first generation never dispatched")
	}

	c.SetText("graph TD\nNew")
	waitState(t, ch, "new generation settled", func(st DisplayState) bool {
		return settled(st) && st.VectorMarkup == "<svg>NEW</svg>"
	})

	close(release)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, "<svg>NEW</svg>", c.State().VectorMarkup,
		"a superseded generation's late result must never overwrite newer state")
}

func TestCoordinator_ClearingTextInvalidatesInflightWork(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	render := &mockRender{check: func(ctx context.Context, text string) renderer.Result {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return renderer.Result{Markup: "<svg>LATE</svg>"}
	}}
	c := newTestCoordinator(t, render, &mockAI{}, 10*time.Millisecond)

	c.SetText("graph TD\nA-->B")
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("generation never dispatched")
	}

	c.SetText("   ")
	assert.Equal(t, DisplayState{}, c.State())

	close(release)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, DisplayState{}, c.State(), "late completion after clearing must be discarded")
}

func TestCoordinator_AgainstRealEngine(t *testing.T) {
	eng, err := diagram.New(diagram.Config{})
	require.NoError(t, err)

	t.Run("well-formed input settles clean", func(t *testing.T) {
		ai := &mockAI{}
		c := newTestCoordinator(t, renderer.New(eng), ai, 10*time.Millisecond)
		ch, cancel := c.Subscribe()
		defer cancel()

		c.SetText("graph TD\nA-->B")
		st := waitState(t, ch, "settled state", settled)
		assert.Nil(t, st.ErrorMessage)
		assert.Contains(t, st.VectorMarkup, "<svg")
	})

	t.Run("malformed input reports the renderer message when the AI times out", func(t *testing.T) {
		ai := &mockAI{check: func(ctx context.Context, _ string) aicheck.Verdict {
			select {
			case <-time.After(50 * time.Millisecond):
			case <-ctx.Done():
			}
			return aicheck.Indeterminate()
		}}
		c := newTestCoordinator(t, renderer.New(eng), ai, 10*time.Millisecond)
		ch, cancel := c.Subscribe()
		defer cancel()

		c.SetText("graph TD\nA--")
		st := waitState(t, ch, "settled state", settled)
		require.NotNil(t, st.ErrorMessage)
		assert.Contains(t, *st.ErrorMessage, "Parse error at line 2")
		assert.Empty(t, st.VectorMarkup)
	})
}

func TestCoordinator_SubscribeSnapshotAndClose(t *testing.T) {
	c := New(&mockRender{}, &mockAI{}, WithDelay(5*time.Millisecond))

	ch, cancel := c.Subscribe()
	defer cancel()
	select {
	case st := <-ch:
		assert.Equal(t, DisplayState{}, st, "subscription starts with a snapshot")
	case <-time.After(time.Second):
		t.Fatal("no snapshot on subscribe")
	}

	c.Close()
	_, ok := <-ch
	assert.False(t, ok, "Close must close subscriber channels")

	// After Close everything is inert.
	c.SetText("graph TD\nA-->B")
	assert.Equal(t, DisplayState{}, c.State())
	lateCh, lateCancel := c.Subscribe()
	defer lateCancel()
	_, ok = <-lateCh
	assert.False(t, ok, "subscribing after Close yields a closed channel")

	require.NotPanics(t, c.Close, "Close is idempotent")
}

func TestCoordinator_UnreadSubscriberNeverBlocksPublishes(t *testing.T) {
	c := newTestCoordinator(t, &mockRender{}, &mockAI{}, 5*time.Millisecond)
	_, cancel := c.Subscribe() // never read from
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3*subscriberBuffer; i++ {
			c.SetText("")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing stalled on a slow subscriber")
	}
}

func TestCheckOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("blank input", func(t *testing.T) {
		out := CheckOnce(ctx, &mockRender{}, &mockAI{}, "  \n ")
		assert.True(t, out.Valid())
		assert.Empty(t, out.Markup)
	})

	t.Run("clean pass keeps markup", func(t *testing.T) {
		out := CheckOnce(ctx, &mockRender{}, &mockAI{}, "graph TD\nA-->B")
		assert.True(t, out.Valid())
		assert.Equal(t, "<svg/>", out.Markup)
		assert.Empty(t, out.Source)
	})

	t.Run("renderer failure attributed to renderer", func(t *testing.T) {
		render := &mockRender{check: func(context.Context, string) renderer.Result {
			return renderer.Result{Err: &renderer.SyntaxError{Message: "Parse error at line 2"}}
		}}
		out := CheckOnce(ctx, render, nil, "graph TD\nA--")
		require.NotNil(t, out.Message)
		assert.Equal(t, "Parse error at line 2", *out.Message)
		assert.Equal(t, "renderer", out.Source)
	})

	t.Run("AI flag attributed to ai", func(t *testing.T) {
		ai := &mockAI{check: func(context.Context, string) aicheck.Verdict {
			return aicheck.Invalid("Arrow has no target.")
		}}
		out := CheckOnce(ctx, &mockRender{}, ai, "graph TD\nA-->B")
		require.NotNil(t, out.Message)
		assert.Equal(t, "Arrow has no target.", *out.Message)
		assert.Equal(t, "ai", out.Source)
	})
}
