package checks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agentaudit/internal/pagespeed"
	"agentaudit/pkg/types"
)

// PriorAnalysisFn looks up the most recent completed analysis for a
// domain created after the given instant. A nil analysis with a nil
// error means no cache hit.
type PriorAnalysisFn func(ctx context.Context, domain string, since time.Time) (*types.Analysis, error)

// Performance runs the page-speed check with a cache-first policy.
type Performance struct {
	client   *pagespeed.Client
	prior    PriorAnalysisFn
	cacheTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// PerformanceOptions configures the performance check runner.
type PerformanceOptions struct {
	Client   *pagespeed.Client
	Prior    PriorAnalysisFn
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// NewPerformance builds the performance runner.
func NewPerformance(opts PerformanceOptions) *Performance {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Performance{
		client:   opts.Client,
		prior:    opts.Prior,
		cacheTTL: opts.CacheTTL,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// PageSpeed scores page performance. A recent analysis of the same domain
// whose performance check held a real measurement is reused instead of
// calling the external API. When neither the cache nor the API yields a
// score, the check is skipped with score and maxScore both forced to 0,
// which removes it from every aggregate.
func (p *Performance) PageSpeed(ctx context.Context, rawURL, domain string) types.Check {
	check := types.Check{
		ID:       IDPageSpeed,
		Name:     "Page speed",
		Category: types.CategoryPerformance,
		MaxScore: MaxPageSpeed,
	}

	if metrics, age, ok := p.cachedMetrics(ctx, domain); ok {
		p.scoreMetrics(&check, metrics)
		check.Data["cached"] = true
		check.Data["cacheAgeHours"] = age
		return check
	}

	var metrics pagespeed.Metrics
	if p.client != nil {
		metrics = p.client.Measure(ctx, rawURL)
	}
	if !metrics.Measured() {
		check.Status = types.StatusSkipped
		check.Score = 0
		check.MaxScore = 0
		check.Details = "Page speed not measured"
		return check
	}

	p.scoreMetrics(&check, metrics)
	return check
}

func (p *Performance) scoreMetrics(check *types.Check, metrics pagespeed.Metrics) {
	score := *metrics.PerformanceScore
	check.Data = map[string]any{"metrics": metrics, "performanceScore": score}

	// A measured poor score still earns minimal credit so that "measured
	// bad" stays distinguishable from "unmeasured".
	switch {
	case score >= 90:
		check.Status = types.StatusPass
		check.Score = MaxPageSpeed
	case score >= 70:
		check.Status = types.StatusPass
		check.Score = scaled(MaxPageSpeed, 0.8)
	case score >= 50:
		check.Status = types.StatusPartial
		check.Score = scaled(MaxPageSpeed, 0.5)
	default:
		check.Status = types.StatusFail
		check.Score = scaled(MaxPageSpeed, 0.2)
	}
	check.Details = fmt.Sprintf("Performance score %d", score)
}

// cachedMetrics returns the reusable measurement from the most recent
// analysis of the domain inside the cache window, if any.
func (p *Performance) cachedMetrics(ctx context.Context, domain string) (pagespeed.Metrics, float64, bool) {
	if p.prior == nil || domain == "" {
		return pagespeed.Metrics{}, 0, false
	}
	since := p.now().Add(-p.cacheTTL)
	analysis, err := p.prior(ctx, domain, since)
	if err != nil {
		p.logger.Warn("pagespeed cache lookup failed", "domain", domain, "error", err)
		return pagespeed.Metrics{}, 0, false
	}
	if analysis == nil {
		return pagespeed.Metrics{}, 0, false
	}
	for _, prior := range analysis.Checks {
		if prior.ID != IDPageSpeed || prior.Status == types.StatusSkipped {
			continue
		}
		score, ok := numericScore(prior.Data["performanceScore"])
		if !ok {
			continue
		}
		age := p.now().Sub(analysis.CreatedAt).Hours()
		p.logger.Debug("pagespeed cache hit", "domain", domain, "ageHours", age)
		return pagespeed.Metrics{PerformanceScore: &score}, age, true
	}
	return pagespeed.Metrics{}, 0, false
}

// numericScore tolerates the two shapes the score takes: int in-process
// and float64 after a JSON round-trip through storage.
func numericScore(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
