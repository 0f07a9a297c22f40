package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full configuration for the audit service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        SQLConfig       `yaml:"db"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Render    RenderConfig    `yaml:"render"`
	Checks    ChecksConfig    `yaml:"checks"`
	PageSpeed PageSpeedConfig `yaml:"pagespeed"`
	Probes    ProbesConfig    `yaml:"probes"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	MaxConcurrent   int      `yaml:"max_concurrent_audits"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// SQLConfig describes the relational database used for jobs and analyses.
// Leaving driver/dsn empty selects the in-memory store.
type SQLConfig struct {
	Driver          string   `yaml:"driver"`
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool     `yaml:"auto_migrate"`
}

// FetchConfig controls the plain HTTP page fetch.
type FetchConfig struct {
	UserAgent    string            `yaml:"user_agent"`
	Headers      map[string]string `yaml:"headers"`
	Timeout      Duration          `yaml:"timeout"`
	MaxBodyBytes int64             `yaml:"max_body_bytes"`
	ProxyURL     string            `yaml:"proxy_url"`
}

// RenderConfig controls the JavaScript rendering fallback.
type RenderConfig struct {
	Engine             string   `yaml:"engine"` // chromedp|http|none
	Endpoint           string   `yaml:"endpoint"`
	APIKey             string   `yaml:"api_key"`
	Timeout            Duration `yaml:"timeout"`
	WaitFor            Duration `yaml:"wait_for"`
	ConcurrentSessions int      `yaml:"concurrent_sessions"`
	DisableHeadless    bool     `yaml:"disable_headless"`
}

// ChecksConfig tunes the discovery and protocol probes.
type ChecksConfig struct {
	CriticalBots    []string `yaml:"critical_bots"`
	RobotsTimeout   Duration `yaml:"robots_timeout"`
	SitemapTimeout  Duration `yaml:"sitemap_timeout"`
	FeedTimeout     Duration `yaml:"feed_timeout"`
	ManifestTimeout Duration `yaml:"manifest_timeout"`
}

// PageSpeedConfig configures the external page-speed API and its cache.
type PageSpeedConfig struct {
	APIKey   string   `yaml:"api_key"`
	Endpoint string   `yaml:"endpoint"`
	Timeout  Duration `yaml:"timeout"`
	CacheTTL Duration `yaml:"cache_ttl"`
}

// ProbesConfig throttles outbound verification probes per host.
type ProbesConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// DefaultCriticalBots are the agent crawlers whose robots.txt access is
// scored by the bot-access check.
var DefaultCriticalBots = []string{
	"GPTBot",
	"ClaudeBot",
	"PerplexityBot",
	"Google-Extended",
	"OAI-SearchBot",
	"Bingbot",
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxConcurrent:   5,
			ShutdownTimeout: DurationFrom(15 * time.Second),
		},
		DB: SQLConfig{
			AutoMigrate: true,
		},
		Fetch: FetchConfig{
			UserAgent:    "agentaudit-bot/1.0",
			Headers:      map[string]string{},
			Timeout:      DurationFrom(10 * time.Second),
			MaxBodyBytes: 6 * 1024 * 1024,
		},
		Render: RenderConfig{
			Engine:             "none",
			Timeout:            DurationFrom(30 * time.Second),
			WaitFor:            DurationFrom(2 * time.Second),
			ConcurrentSessions: 2,
		},
		Checks: ChecksConfig{
			CriticalBots:    append([]string(nil), DefaultCriticalBots...),
			RobotsTimeout:   DurationFrom(5 * time.Second),
			SitemapTimeout:  DurationFrom(8 * time.Second),
			FeedTimeout:     DurationFrom(8 * time.Second),
			ManifestTimeout: DurationFrom(3 * time.Second),
		},
		PageSpeed: PageSpeedConfig{
			Endpoint: "https://www.googleapis.com/pagespeedonline/v5/runPagespeed",
			Timeout:  DurationFrom(30 * time.Second),
			CacheTTL: DurationFrom(24 * time.Hour),
		},
		Probes: ProbesConfig{
			Requests: 8,
			Window:   DurationFrom(time.Second),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for the service configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Fetch.UserAgent) == "" {
		return errors.New("fetch.user_agent must be set")
	}
	if c.Fetch.Timeout.Duration <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0 (got %s)", c.Fetch.Timeout)
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0 (got %d)", c.Fetch.MaxBodyBytes)
	}
	switch strings.ToLower(c.Render.Engine) {
	case "", "none", "chromedp", "chrome":
	case "http":
		if strings.TrimSpace(c.Render.Endpoint) == "" {
			return errors.New("render.endpoint must be set when render.engine is http")
		}
	default:
		return fmt.Errorf("unsupported render engine %q", c.Render.Engine)
	}
	if len(c.Checks.CriticalBots) == 0 {
		return errors.New("checks.critical_bots must include at least one bot")
	}
	if c.Server.MaxConcurrent <= 0 {
		return fmt.Errorf("server.max_concurrent_audits must be > 0 (got %d)", c.Server.MaxConcurrent)
	}
	if c.Probes.Requests < 0 {
		return fmt.Errorf("probes.requests must be >= 0 (got %d)", c.Probes.Requests)
	}
	return nil
}

func (c *Config) normalise() {
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	c.Render.Engine = strings.ToLower(strings.TrimSpace(c.Render.Engine))
	c.Render.Endpoint = strings.TrimSpace(c.Render.Endpoint)
	c.PageSpeed.Endpoint = strings.TrimSpace(c.PageSpeed.Endpoint)
	if c.Fetch.Headers == nil {
		c.Fetch.Headers = make(map[string]string)
	}
	if len(c.Checks.CriticalBots) > 0 {
		c.Checks.CriticalBots = dedupe(c.Checks.CriticalBots)
	}
}

func dedupe(values []string) []string {
	unique := make(map[string]struct{}, len(values))
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := unique[key]; ok {
			continue
		}
		unique[key] = struct{}{}
		cleaned = append(cleaned, v)
	}
	sort.Strings(cleaned)
	return cleaned
}
