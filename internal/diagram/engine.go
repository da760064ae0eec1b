// Package diagram parses a mermaid-style flowchart subset, lays it
// out, and renders it to SVG. The engine's presentation settings are
// fixed at construction; the process-wide default is installed once at
// startup via Configure.
package diagram

import (
	"errors"
	"fmt"
	"sync"
)

// Config fixes an engine's one-time presentation and sanitization
// settings. The zero value selects the default theme, strict security,
// and the builtin font stack.
type Config struct {
	Theme         string `json:"theme" yaml:"theme"`
	SecurityLevel string `json:"securityLevel" yaml:"security_level"`
	FontFamily    string `json:"fontFamily" yaml:"font_family"`
}

func (c Config) withDefaults() Config {
	if c.Theme == "" {
		c.Theme = ThemeDefault
	}
	if c.SecurityLevel == "" {
		c.SecurityLevel = SecurityStrict
	}
	if c.FontFamily == "" {
		c.FontFamily = "Helvetica, Arial, sans-serif"
	}
	return c
}

// Engine renders flowchart descriptions with an immutable configuration.
type Engine struct {
	cfg Config
	pal palette
}

// New builds an engine, rejecting unknown theme or security names.
func New(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	pal, ok := palettes[cfg.Theme]
	if !ok {
		return nil, fmt.Errorf("diagram: unknown theme %q", cfg.Theme)
	}
	switch cfg.SecurityLevel {
	case SecurityStrict, SecurityLoose:
	default:
		return nil, fmt.Errorf("diagram: unknown security level %q", cfg.SecurityLevel)
	}
	return &Engine{cfg: cfg, pal: pal}, nil
}

// Config returns the engine's settings.
func (e *Engine) Config() Config { return e.cfg }

// Parse validates text without rendering it. The returned error, when
// non-nil, is a *ParseError.
func (e *Engine) Parse(text string) error {
	_, err := Parse(text)
	return err
}

// Render produces the SVG document for text. The id namespaces every
// element id in the output so multiple renders can coexist in one DOM.
func (e *Engine) Render(id, text string) (string, error) {
	if id == "" {
		id = "diagram"
	}
	g, err := Parse(text)
	if err != nil {
		return "", err
	}
	lr, err := layout(g)
	if err != nil {
		return "", fmt.Errorf("diagram: layout: %w", err)
	}
	return renderSVG(id, lr, e.pal, e.cfg.FontFamily, e.cfg.SecurityLevel == SecurityStrict), nil
}

// --- Process-wide default ---

var (
	defaultMu     sync.Mutex
	defaultEngine *Engine
)

// Configure installs the process-wide default engine. Call it once at
// startup, before Default; a second call fails. The installed
// configuration never changes afterwards.
func Configure(cfg Config) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultEngine != nil {
		return errors.New("diagram: already configured")
	}
	e, err := New(cfg)
	if err != nil {
		return err
	}
	defaultEngine = e
	return nil
}

// Default returns the engine installed by Configure, falling back to
// builtin defaults (and pinning them) when Configure was never called.
func Default() *Engine {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultEngine == nil {
		e, err := New(Config{})
		if err != nil {
			panic(fmt.Sprintf("diagram: default config rejected: %v", err))
		}
		defaultEngine = e
	}
	return defaultEngine
}
