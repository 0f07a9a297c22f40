package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "none", cfg.Render.Engine)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.NotEmpty(t, cfg.Checks.CriticalBots)
}

func TestLoadFromReaderOverridesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
server:
  addr: ":9000"
  max_concurrent_audits: 2
fetch:
  timeout: 4s
checks:
  critical_bots: ["GPTBot", "gptbot", " ClaudeBot "]
pagespeed:
  api_key: secret
logging:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.Server.MaxConcurrent)
	assert.Equal(t, 4*time.Second, cfg.Fetch.Timeout.Duration)
	assert.Equal(t, "secret", cfg.PageSpeed.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, "agentaudit-bot/1.0", cfg.Fetch.UserAgent)
	assert.Equal(t, 24*time.Hour, cfg.PageSpeed.CacheTTL.Duration)

	// Bot list is trimmed, deduped case-insensitively, and sorted.
	assert.Equal(t, []string{"ClaudeBot", "GPTBot"}, cfg.Checks.CriticalBots)
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("serverr:\n  addr: ':9000'\n"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty user agent", func(c *Config) { c.Fetch.UserAgent = " " }},
		{"zero fetch timeout", func(c *Config) { c.Fetch.Timeout = Duration{} }},
		{"negative body cap", func(c *Config) { c.Fetch.MaxBodyBytes = -1 }},
		{"unknown render engine", func(c *Config) { c.Render.Engine = "phantomjs" }},
		{"http renderer without endpoint", func(c *Config) { c.Render.Engine = "http"; c.Render.Endpoint = "" }},
		{"no critical bots", func(c *Config) { c.Checks.CriticalBots = nil }},
		{"zero concurrency", func(c *Config) { c.Server.MaxConcurrent = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationParsing(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	assert.Error(t, d.UnmarshalText([]byte("soon")))

	require.NoError(t, d.UnmarshalText(nil))
	assert.True(t, d.IsZero())

	out, err := DurationFrom(time.Minute).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m0s", string(out))
}

func TestDurationYAMLNumericSeconds(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("fetch:\n  timeout: 30\n"))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout.Duration)
}
