// Package pagespeed wraps the external page-speed measurement API. The
// client never returns an error to callers: any failure (missing key,
// transport error, non-200, malformed body) yields a Metrics value with
// every field nil.
package pagespeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// Metrics is the nullable measurement set for one URL. A nil
// PerformanceScore means the page was not measured at all.
type Metrics struct {
	PerformanceScore *int     `json:"performanceScore"`
	FirstContentful  *float64 `json:"firstContentfulPaintMs"`
	LargestPaint     *float64 `json:"largestContentfulPaintMs"`
	TotalBlocking    *float64 `json:"totalBlockingTimeMs"`
	CumulativeShift  *float64 `json:"cumulativeLayoutShift"`
	SpeedIndex       *float64 `json:"speedIndexMs"`
}

// Measured reports whether a real score is present.
func (m Metrics) Measured() bool { return m.PerformanceScore != nil }

// Options configures the client.
type Options struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	Client   *http.Client
	Logger   *slog.Logger
}

// Client calls the page-speed API.
type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
	timeout  time.Duration
	logger   *slog.Logger
}

// NewClient builds a page-speed client. A zero APIKey is allowed; calls
// then short-circuit to the empty metrics value.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		apiKey:   opts.APIKey,
		endpoint: opts.Endpoint,
		http:     opts.Client,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

type apiResponse struct {
	LighthouseResult struct {
		Categories struct {
			Performance struct {
				Score *float64 `json:"score"`
			} `json:"performance"`
		} `json:"categories"`
		Audits map[string]struct {
			NumericValue *float64 `json:"numericValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
}

// Measure fetches metrics for target. Failures are logged and reported as
// the empty metrics value, never as an error.
func (c *Client) Measure(ctx context.Context, target string) Metrics {
	if c.apiKey == "" {
		c.logger.Debug("pagespeed skipped, no api key configured")
		return Metrics{}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("url", target)
	query.Set("key", c.apiKey)
	query.Set("strategy", "mobile")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		c.logger.Warn("pagespeed request build failed", "error", err)
		return Metrics{}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("pagespeed request failed", "url", target, "error", err)
		return Metrics{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("pagespeed non-200 response", "url", target, "status", resp.StatusCode)
		return Metrics{}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		c.logger.Warn("pagespeed body read failed", "url", target, "error", err)
		return Metrics{}
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Warn("pagespeed response parse failed", "url", target, "error", err)
		return Metrics{}
	}

	score := parsed.LighthouseResult.Categories.Performance.Score
	if score == nil {
		return Metrics{}
	}

	rounded := int(*score*100 + 0.5)
	m := Metrics{PerformanceScore: &rounded}
	audit := func(name string) *float64 {
		if a, ok := parsed.LighthouseResult.Audits[name]; ok {
			return a.NumericValue
		}
		return nil
	}
	m.FirstContentful = audit("first-contentful-paint")
	m.LargestPaint = audit("largest-contentful-paint")
	m.TotalBlocking = audit("total-blocking-time")
	m.CumulativeShift = audit("cumulative-layout-shift")
	m.SpeedIndex = audit("speed-index")

	c.logger.Debug("pagespeed measured", "url", target, "score", rounded)
	return m
}

// String gives a compact log representation.
func (m Metrics) String() string {
	if m.PerformanceScore == nil {
		return "unmeasured"
	}
	return fmt.Sprintf("score=%d", *m.PerformanceScore)
}
