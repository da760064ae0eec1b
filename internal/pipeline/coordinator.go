package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/mermpad/internal/aicheck"
	"github.com/dusk-indust/mermpad/internal/debounce"
	"github.com/dusk-indust/mermpad/internal/renderer"
)

const (
	// DefaultDelay is the production quiet interval.
	DefaultDelay = 750 * time.Millisecond

	// subscriberBuffer bounds each listener channel; publishes to a
	// full listener are dropped, never blocked on.
	subscriberBuffer = 16
)

// Coordinator owns one editing surface's validation state. Raw text
// enters through SetText; debounced snapshots open a new generation
// whose renderer and AI checks run concurrently. Completions apply only
// while their generation is still current, so arbitrarily late results
// from superseded generations never reach the published state.
type Coordinator struct {
	render RenderChecker
	ai     aicheck.Checker
	delay  time.Duration

	mu       sync.Mutex
	deb      *debounce.Debouncer
	gen      uint64
	cancel   context.CancelFunc
	lastText string
	cur      genResults
	state    DisplayState
	subs     map[chan DisplayState]struct{}
	closed   bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDelay overrides the debounce quiet interval.
func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.delay = d
		}
	}
}

// New builds a running coordinator. A nil ai checker degrades to
// renderer-only validation.
func New(render RenderChecker, ai aicheck.Checker, opts ...Option) *Coordinator {
	c := &Coordinator{
		render: render,
		ai:     ai,
		delay:  DefaultDelay,
		subs:   make(map[chan DisplayState]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ai == nil {
		c.ai = aicheck.Disabled{}
	}
	c.deb = debounce.New(c.delay, c.debounced)
	return c
}

// SetText feeds a raw edit into the pipeline. Blank text bypasses the
// debounce and the adapters entirely: the empty state publishes at
// once and any in-flight generation is invalidated.
func (c *Coordinator) SetText(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.lastText = text
	if strings.TrimSpace(text) == "" {
		c.gen++
		c.cur = genResults{}
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		c.deb.Cancel()
		c.publishLocked(DisplayState{})
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.deb.Observe(text)
}

// debounced opens a new generation for a quiet snapshot. Emissions that
// no longer match the latest raw text are stale and dropped.
func (c *Coordinator) debounced(text string) {
	c.mu.Lock()
	if c.closed || text != c.lastText {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.cur = genResults{}
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	// Both checks pending: keep the previous markup visible, clear the
	// previous message.
	c.publishLocked(DisplayState{
		VectorMarkup: c.state.VectorMarkup,
		Rendering:    true,
		Checking:     true,
	})
	c.mu.Unlock()

	go c.runChecks(ctx, gen, text)
}

// runChecks dispatches both adapters concurrently. Their failures are
// encoded in the results, so the group never yields an error.
func (c *Coordinator) runChecks(ctx context.Context, gen uint64, text string) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.applyRender(gen, c.render.Check(gctx, text))
		return nil
	})
	g.Go(func() error {
		c.applyAI(gen, c.ai.Check(gctx, text))
		return nil
	})
	_ = g.Wait()
}

// applyRender folds a renderer completion into the state if its
// generation is still current.
func (c *Coordinator) applyRender(gen uint64, res renderer.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return
	}
	c.cur.renderDone = true
	c.cur.render = res

	st := c.state
	st.Rendering = false
	if res.Err != nil {
		st.VectorMarkup = ""
	} else {
		st.VectorMarkup = res.Markup
	}
	st.ErrorMessage = c.cur.errorMessage()
	c.publishLocked(st)
}

// applyAI folds an AI completion into the state if its generation is
// still current.
func (c *Coordinator) applyAI(gen uint64, v aicheck.Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return
	}
	c.cur.aiDone = true
	c.cur.ai = v

	st := c.state
	st.Checking = false
	st.ErrorMessage = c.cur.errorMessage()
	c.publishLocked(st)
}

// publishLocked stores st and fans it out without blocking. Callers
// hold c.mu.
func (c *Coordinator) publishLocked(st DisplayState) {
	c.state = st
	for ch := range c.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

// State returns the current published state.
func (c *Coordinator) State() DisplayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a listener. The channel starts with a snapshot of
// the current state and closes on unsubscribe or Close. Slow listeners
// miss intermediate states rather than slowing the pipeline.
func (c *Coordinator) Subscribe() (<-chan DisplayState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan DisplayState, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- c.state
	c.subs[ch] = struct{}{}
	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Close stops the debouncer, cancels the in-flight generation, and
// closes every subscriber. The coordinator is unusable afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.deb.Stop()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	for ch := range c.subs {
		delete(c.subs, ch)
		close(ch)
	}
}
