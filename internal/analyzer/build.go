package analyzer

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"agentaudit/internal/checks"
	"agentaudit/internal/config"
	"agentaudit/internal/fetcher"
	"agentaudit/internal/pagespeed"
	"agentaudit/internal/storage"
)

// BuildLogger constructs the process logger from configuration.
func BuildLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Structured {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler), nil
}

// FromConfig wires a full analyzer from configuration: fetch client,
// optional rendering fallback, probe client and all check runners.
func FromConfig(cfg config.Config, store storage.Store, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := fetcher.NewClient(fetcher.Options{
		UserAgent:    cfg.Fetch.UserAgent,
		Headers:      cfg.Fetch.Headers,
		Timeout:      cfg.Fetch.Timeout.Duration,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		ProxyURL:     cfg.Fetch.ProxyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("http fetcher: %w", err)
	}

	var renderer fetcher.Renderer
	switch strings.ToLower(cfg.Render.Engine) {
	case "chromedp", "chrome":
		renderer = fetcher.NewChromedpRenderer(fetcher.RenderOptions{
			Timeout:            cfg.Render.Timeout.Duration,
			WaitFor:            cfg.Render.WaitFor.Duration,
			UserAgent:          cfg.Fetch.UserAgent,
			MaxBodyBytes:       cfg.Fetch.MaxBodyBytes,
			DisableHeadless:    cfg.Render.DisableHeadless,
			ConcurrentSessions: cfg.Render.ConcurrentSessions,
		}, logger)
	case "http":
		renderer = fetcher.NewHTTPRenderer(cfg.Render.Endpoint, cfg.Render.APIKey,
			cfg.Render.WaitFor.Duration, cfg.Render.Timeout.Duration, logger)
	case "none", "":
		// Static HTML only.
	default:
		return nil, fmt.Errorf("unsupported render engine %q", cfg.Render.Engine)
	}

	prober := checks.NewProber(checks.ProberOptions{
		Client:    client.HTTPClient(),
		UserAgent: cfg.Fetch.UserAgent,
		Requests:  cfg.Probes.Requests,
		Window:    cfg.Probes.Window.Duration,
	})

	discovery := checks.NewDiscovery(checks.DiscoveryOptions{
		Prober:         prober,
		CriticalBots:   cfg.Checks.CriticalBots,
		Logger:         logger,
		RobotsTimeout:  cfg.Checks.RobotsTimeout.Duration,
		SitemapTimeout: cfg.Checks.SitemapTimeout.Duration,
		FeedTimeout:    cfg.Checks.FeedTimeout.Duration,
	})

	protocol := checks.NewProtocol(prober, cfg.Checks.ManifestTimeout.Duration, logger)

	performance := checks.NewPerformance(checks.PerformanceOptions{
		Client: pagespeed.NewClient(pagespeed.Options{
			APIKey:   cfg.PageSpeed.APIKey,
			Endpoint: cfg.PageSpeed.Endpoint,
			Timeout:  cfg.PageSpeed.Timeout.Duration,
			Logger:   logger,
		}),
		Prior:    store.LatestAnalysisByDomain,
		CacheTTL: cfg.PageSpeed.CacheTTL.Duration,
		Logger:   logger,
	})

	return New(Options{
		Store:         store,
		Fetcher:       fetcher.NewSmartClient(client, renderer, logger),
		Discovery:     discovery,
		Protocol:      protocol,
		Performance:   performance,
		Logger:        logger,
		MaxConcurrent: cfg.Server.MaxConcurrent,
	}), nil
}
