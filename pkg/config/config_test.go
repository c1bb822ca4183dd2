package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webagent/pkg/events"
	"github.com/entrhq/webagent/pkg/retention"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "webagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	assert.Equal(t, 1080, cfg.Browser.ViewportHeight)
	assert.Equal(t, retention.KindCount, cfg.Retention.Kind)
	assert.Equal(t, 20, cfg.Retention.MaxFiles)
	assert.True(t, cfg.Dialogs.AutoHandle)
	assert.Equal(t, events.ActionAccept, cfg.Dialogs.DefaultAction)
	assert.Equal(t, 1000, cfg.Dialogs.BufferSize)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
browser:
  headless: false
  navigation_timeout: 90s
screenshots:
  directory: /tmp/shots
retention:
  kind: age
  min_keep: 5
  max_age: 720h
dialogs:
  default_action: dismiss
  prompt_text: "yes"
console:
  buffer_size: 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 90*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 30*time.Second, cfg.Browser.ActionTimeout, "unset keys keep defaults")
	assert.Equal(t, "/tmp/shots", cfg.Screenshots.Directory)
	assert.Equal(t, retention.Policy{Kind: retention.KindAge, MaxFiles: 20, MinKeep: 5, MaxAge: 720 * time.Hour}, cfg.Retention)
	assert.Equal(t, events.ActionDismiss, cfg.Dialogs.DefaultAction)
	assert.Equal(t, "yes", cfg.Dialogs.PromptText)
	assert.True(t, cfg.Dialogs.AutoHandle)
	assert.Equal(t, 50, cfg.Console.BufferSize)
	assert.Equal(t, 1000, cfg.Dialogs.BufferSize)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "browser: [not, a, map]"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeConfig(t, "retention:\n  kind: lru\n"))
	assert.ErrorContains(t, err, "unknown retention kind")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "viewport", mutate: func(c *Config) { c.Browser.ViewportWidth = 0 }, want: "viewport"},
		{name: "timeout", mutate: func(c *Config) { c.Browser.ActionTimeout = -time.Second }, want: "timeouts"},
		{name: "directory", mutate: func(c *Config) { c.Screenshots.Directory = "" }, want: "directory"},
		{name: "quality", mutate: func(c *Config) { c.Screenshots.HiResQuality = 101 }, want: "hi_res_quality"},
		{name: "dialog action", mutate: func(c *Config) { c.Dialogs.DefaultAction = "ignore" }, want: "default_action"},
		{name: "buffer", mutate: func(c *Config) { c.Console.BufferSize = 0 }, want: "buffer sizes"},
		{name: "content", mutate: func(c *Config) { c.Content.MaxTokens = -1 }, want: "max_tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
