package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, 750*time.Millisecond, cfg.DebounceDelay())
	assert.Equal(t, 30*time.Second, cfg.AITimeout())
	assert.False(t, cfg.AI.Enabled)
	assert.Zero(t, cfg.SessionIdleTimeout())
}

func TestLoad_ReadsYAMLAndFillsGaps(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  addr: ":9000"
debounce:
  delay_ms: 200
ai:
  enabled: true
  model: gpt-4o
render:
  theme: dark
  security_level: loose
session:
  idle_timeout_minutes: 15
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mermpad.yml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 200*time.Millisecond, cfg.DebounceDelay())
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	// timeout_seconds omitted: default fills in.
	assert.Equal(t, 30*time.Second, cfg.AITimeout())
	assert.Equal(t, "dark", cfg.Render.Theme)
	assert.Equal(t, "loose", cfg.Render.SecurityLevel)
	assert.Equal(t, 15*time.Minute, cfg.SessionIdleTimeout())
}

func TestLoad_PrefersYmlOverYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mermpad.yml"), []byte("server:\n  addr: \":1\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mermpad.yaml"), []byte("server:\n  addr: \":2\"\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":1", cfg.Server.Addr)
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mermpad.yaml"), []byte("server: [not a map"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")
}
