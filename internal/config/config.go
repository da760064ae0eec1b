// Package config loads mermpad's optional YAML settings file. A
// missing file is not an error: every field has a usable zero-value
// default so the binary runs unconfigured.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied where the file is absent or silent.
const (
	DefaultAddr           = ":8632"
	DefaultDebounceMillis = 750
	DefaultAITimeoutSecs  = 30
)

// Config holds every tunable the mermpad binary reads.
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	Debounce DebounceConfig `yaml:"debounce,omitempty"`
	AI       AIConfig       `yaml:"ai,omitempty"`
	Render   RenderConfig   `yaml:"render,omitempty"`
	Session  SessionConfig  `yaml:"session,omitempty"`
}

// ServerConfig tunes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// DebounceConfig tunes the editor quiet interval.
type DebounceConfig struct {
	DelayMillis int `yaml:"delay_ms,omitempty"`
}

// AIConfig tunes the hosted-model syntax check. The credential itself
// never lives here; the SDK reads OPENAI_API_KEY from the environment.
type AIConfig struct {
	Enabled        bool   `yaml:"enabled,omitempty"`
	Model          string `yaml:"model,omitempty"`
	BaseURL        string `yaml:"base_url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// RenderConfig selects the engine's one-time presentation settings.
type RenderConfig struct {
	Theme         string `yaml:"theme,omitempty"`
	SecurityLevel string `yaml:"security_level,omitempty"`
}

// SessionConfig tunes session lifecycle on the server.
type SessionConfig struct {
	IdleTimeoutMinutes int `yaml:"idle_timeout_minutes,omitempty"`
}

// Load reads mermpad.yml or mermpad.yaml from dir. When neither file
// exists it returns a config carrying only defaults, not an error; a
// file that exists but fails to parse is an error.
func Load(dir string) (*Config, error) {
	var cfg Config
	for _, name := range []string{"mermpad.yml", "mermpad.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", name, err)
		}
		break
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Debounce.DelayMillis <= 0 {
		c.Debounce.DelayMillis = DefaultDebounceMillis
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = DefaultAITimeoutSecs
	}
}

// DebounceDelay returns the quiet interval as a duration.
func (c *Config) DebounceDelay() time.Duration {
	return time.Duration(c.Debounce.DelayMillis) * time.Millisecond
}

// AITimeout returns the per-check model call budget.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// SessionIdleTimeout returns the idle eviction window; zero disables
// eviction.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.Session.IdleTimeoutMinutes) * time.Minute
}
