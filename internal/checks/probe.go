package checks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ProbeResponse is the bounded result of a verification probe.
type ProbeResponse struct {
	StatusCode  int
	ContentType string
	Body        string
}

// OK reports a 2xx status.
func (r *ProbeResponse) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Prober issues small outbound GETs against well-known paths with per-probe
// budgets and per-host politeness throttling. Probe failures are expected
// and degrade to nil results at the call sites; the prober itself never
// panics on bad input.
type Prober struct {
	client    *http.Client
	userAgent string
	maxBody   int64

	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// ProberOptions configures the probe client.
type ProberOptions struct {
	Client    *http.Client
	UserAgent string
	MaxBody   int64
	// Requests per Window caps probe throughput per host; zero disables.
	Requests int
	Window   time.Duration
}

// NewProber builds a probe client.
func NewProber(opts ProberOptions) *Prober {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	maxBody := opts.MaxBody
	if maxBody <= 0 {
		maxBody = 2 * 1024 * 1024
	}
	p := &Prober{
		client:    client,
		userAgent: opts.UserAgent,
		maxBody:   maxBody,
	}
	if opts.Requests > 0 && opts.Window > 0 {
		interval := opts.Window / time.Duration(opts.Requests)
		if interval <= 0 {
			interval = time.Millisecond
		}
		p.limit = rate.Every(interval)
		p.burst = opts.Requests
		p.limiters = make(map[string]*rate.Limiter)
	}
	return p
}

// Get fetches a URL with the given budget and returns a bounded response.
func (p *Prober) Get(ctx context.Context, rawURL string, budget time.Duration) (*ProbeResponse, error) {
	if budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build probe request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	if err := p.wait(ctx, req.URL.Hostname()); err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read probe body: %w", err)
	}

	return &ProbeResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}

func (p *Prober) wait(ctx context.Context, host string) error {
	if p.limiters == nil || host == "" {
		return nil
	}
	host = strings.ToLower(host)

	p.mu.Lock()
	limiter, ok := p.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(p.limit, p.burst)
		p.limiters[host] = limiter
	}
	p.mu.Unlock()

	return limiter.Wait(ctx)
}
