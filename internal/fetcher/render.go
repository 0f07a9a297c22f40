package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer executes JavaScript and returns the rendered DOM.
type Renderer interface {
	Render(ctx context.Context, target *url.URL) (*Page, error)
}

// RenderOptions configures the rendering fallback.
type RenderOptions struct {
	Timeout            time.Duration
	WaitFor            time.Duration
	UserAgent          string
	MaxBodyBytes       int64
	DisableHeadless    bool
	ConcurrentSessions int
}

// ChromedpRenderer executes headless Chrome sessions using chromedp.
type ChromedpRenderer struct {
	opts      RenderOptions
	semaphore chan struct{}
	logger    *slog.Logger
}

// NewChromedpRenderer constructs a renderer with bounded concurrency.
func NewChromedpRenderer(opts RenderOptions, logger *slog.Logger) *ChromedpRenderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.WaitFor <= 0 {
		opts.WaitFor = 1500 * time.Millisecond
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 * 1024 * 1024
	}
	if opts.ConcurrentSessions <= 0 {
		opts.ConcurrentSessions = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromedpRenderer{
		opts:      opts,
		semaphore: make(chan struct{}, opts.ConcurrentSessions),
		logger:    logger,
	}
}

// Render navigates to the target URL and exports the final DOM outer HTML.
func (r *ChromedpRenderer) Render(parentCtx context.Context, target *url.URL) (*Page, error) {
	if target == nil {
		return nil, fmt.Errorf("render target URL is nil")
	}

	logger := r.logger.With("url", target.String(), "timeout", r.opts.Timeout.String())

	select {
	case r.semaphore <- struct{}{}:
		defer func() { <-r.semaphore }()
	case <-parentCtx.Done():
		return nil, parentCtx.Err()
	}

	ctx, cancel := context.WithTimeout(parentCtx, r.opts.Timeout)
	defer cancel()

	headless := !r.opts.DisableHeadless
	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	}
	if ua := strings.TrimSpace(r.opts.UserAgent); ua != "" {
		execOpts = append(execOpts, chromedp.UserAgent(ua))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	start := time.Now()
	var html string
	var finalURL string

	err := chromedp.Run(chromeCtx,
		chromedp.Navigate(target.String()),
		chromedp.Sleep(r.opts.WaitFor),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		logger.Error("chromedp run failed", "error", err)
		return nil, fmt.Errorf("chromedp run: %w", err)
	}

	if int64(len(html)) > r.opts.MaxBodyBytes {
		html = html[:r.opts.MaxBodyBytes]
	}

	parsedFinal := target
	if finalURL != "" {
		if u, err := url.Parse(finalURL); err == nil {
			parsedFinal = u
		}
	}

	latency := time.Since(start)
	logger.Debug("chromedp render complete", "latency_ms", latency.Milliseconds(), "html_bytes", len(html))
	return &Page{
		URL:         target,
		FinalURL:    parsedFinal,
		Body:        []byte(html),
		ContentType: "text/html; charset=utf-8",
		StatusCode:  http.StatusOK,
		FetchedAt:   time.Now(),
		Rendered:    true,
		Latency:     latency,
	}, nil
}

// HTTPRenderer delegates rendering to an external headless-browser service
// exposing a POST endpoint: {url, wait_for_ms} -> {html, final_url}.
type HTTPRenderer struct {
	endpoint string
	apiKey   string
	waitFor  time.Duration
	timeout  time.Duration
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPRenderer constructs a renderer backed by a remote render API.
func NewHTTPRenderer(endpoint, apiKey string, waitFor, timeout time.Duration, logger *slog.Logger) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if waitFor <= 0 {
		waitFor = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPRenderer{
		endpoint: endpoint,
		apiKey:   apiKey,
		waitFor:  waitFor,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type renderRequest struct {
	URL       string `json:"url"`
	WaitForMS int64  `json:"wait_for_ms"`
	TimeoutMS int64  `json:"timeout_ms"`
}

type renderResponse struct {
	HTML     string `json:"html"`
	FinalURL string `json:"final_url"`
}

// Render posts the target URL to the render service and wraps the response.
func (r *HTTPRenderer) Render(ctx context.Context, target *url.URL) (*Page, error) {
	if target == nil {
		return nil, fmt.Errorf("render target URL is nil")
	}

	payload, err := json.Marshal(renderRequest{
		URL:       target.String(),
		WaitForMS: r.waitFor.Milliseconds(),
		TimeoutMS: r.timeout.Milliseconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal render request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read render response: %w", err)
	}

	var decoded renderResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode render response: %w", err)
	}

	parsedFinal := target
	if decoded.FinalURL != "" {
		if u, err := url.Parse(decoded.FinalURL); err == nil {
			parsedFinal = u
		}
	}

	return &Page{
		URL:         target,
		FinalURL:    parsedFinal,
		Body:        []byte(decoded.HTML),
		ContentType: "text/html; charset=utf-8",
		StatusCode:  http.StatusOK,
		FetchedAt:   time.Now(),
		Rendered:    true,
		Latency:     time.Since(start),
	}, nil
}
