package checks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agentaudit/pkg/types"
)

// botVerdict is the resolved robots.txt outcome for one bot.
type botVerdict struct {
	Allowed bool
	// Explicit records that a bot-specific section supplied the verdict.
	// Once set, wildcard rules can never override it again.
	Explicit bool
}

// RobotsRules holds per-bot verdicts for site-root access.
type RobotsRules struct {
	Found    bool
	Verdicts map[string]botVerdict
}

// Allowed reports whether the named bot may fetch the site root. A missing
// robots.txt allows everyone.
func (r RobotsRules) Allowed(bot string) bool {
	if !r.Found {
		return true
	}
	v, ok := r.Verdicts[strings.ToLower(bot)]
	if !ok {
		return true
	}
	return v.Allowed
}

// ParseRobots evaluates a robots.txt body against the given bot names,
// answering "may this bot fetch /" per bot.
//
// Precedence is deliberately asymmetric and should not be "fixed": a rule
// from a section naming the bot always beats any wildcard rule, and marks
// the bot explicit so later wildcard sections stay ignored for it. Within
// a section the last applicable rule (path "/" or empty) wins. Wildcard
// rules only ever apply to bots that no bot-specific rule has touched.
func ParseRobots(body string, bots []string) RobotsRules {
	rules := RobotsRules{Found: true, Verdicts: make(map[string]botVerdict, len(bots))}
	for _, bot := range bots {
		rules.Verdicts[strings.ToLower(bot)] = botVerdict{Allowed: true}
	}

	var activeAgents []string
	lastLineWasAgent := false

	for _, line := range strings.Split(body, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if !lastLineWasAgent {
				activeAgents = nil
			}
			activeAgents = append(activeAgents, strings.ToLower(value))
			lastLineWasAgent = true
		case "allow", "disallow":
			lastLineWasAgent = false
			if !rootApplicable(value) {
				continue
			}
			allowed := key == "allow" || value == ""
			applyRule(&rules, bots, activeAgents, allowed)
		default:
			lastLineWasAgent = false
		}
	}
	return rules
}

// rootApplicable reports whether a rule path affects the site root.
func rootApplicable(path string) bool {
	return path == "" || path == "/"
}

func applyRule(rules *RobotsRules, bots, agents []string, allowed bool) {
	for _, agent := range agents {
		if agent == "*" {
			for _, bot := range bots {
				key := strings.ToLower(bot)
				v := rules.Verdicts[key]
				if v.Explicit {
					continue
				}
				v.Allowed = allowed
				rules.Verdicts[key] = v
			}
			continue
		}
		for _, bot := range bots {
			key := strings.ToLower(bot)
			if !agentMatchesBot(agent, key) {
				continue
			}
			rules.Verdicts[key] = botVerdict{Allowed: allowed, Explicit: true}
		}
	}
}

// agentMatchesBot matches a User-agent token against a bot name, treating
// the token as a case-insensitive prefix of the bot name.
func agentMatchesBot(agent, bot string) bool {
	return agent == bot || strings.HasPrefix(bot, agent)
}

// BotAccess fetches and scores robots.txt access for the critical bots.
// A missing robots.txt means every bot is implicitly allowed.
func (d *Discovery) BotAccess(ctx context.Context, baseURL string) types.Check {
	check := types.Check{
		ID:       IDBotAccess,
		Name:     "AI crawler access",
		Category: types.CategoryDiscovery,
		MaxScore: MaxBotAccess,
	}

	resp, err := d.prober.Get(ctx, strings.TrimSuffix(baseURL, "/")+"/robots.txt", d.robotsTimeout)
	if err != nil || !resp.OK() {
		check.Status = types.StatusPass
		check.Score = MaxBotAccess
		check.Details = "No robots.txt found; all AI crawlers are implicitly allowed"
		check.Data = map[string]any{"robotsFound": false}
		return check
	}

	rules := ParseRobots(resp.Body, d.criticalBots)
	allowed := make([]string, 0, len(d.criticalBots))
	blocked := make([]string, 0)
	for _, bot := range d.criticalBots {
		if rules.Allowed(bot) {
			allowed = append(allowed, bot)
		} else {
			blocked = append(blocked, bot)
		}
	}

	ratio := float64(len(allowed)) / float64(len(d.criticalBots))
	switch {
	case ratio == 1:
		check.Status = types.StatusPass
		check.Score = MaxBotAccess
		check.Details = "All critical AI crawlers may access the site"
	case ratio >= 0.7:
		check.Status = types.StatusPartial
		check.Score = int(float64(MaxBotAccess) * 0.7)
		check.Details = fmt.Sprintf("%d of %d critical AI crawlers allowed", len(allowed), len(d.criticalBots))
	case ratio > 0:
		check.Status = types.StatusPartial
		check.Score = int(float64(MaxBotAccess) * 0.4)
		check.Details = fmt.Sprintf("Only %d of %d critical AI crawlers allowed", len(allowed), len(d.criticalBots))
	default:
		check.Status = types.StatusFail
		check.Score = 0
		check.Details = "All critical AI crawlers are blocked by robots.txt"
	}
	check.Data = map[string]any{
		"robotsFound": true,
		"allowedBots": allowed,
		"blockedBots": blocked,
	}
	return check
}

// Discovery runs the discovery-category checks.
type Discovery struct {
	prober       *Prober
	criticalBots []string
	logger       *slog.Logger

	robotsTimeout  time.Duration
	sitemapTimeout time.Duration
	feedTimeout    time.Duration
	llmsTimeout    time.Duration
}

// DiscoveryOptions configures the discovery checks.
type DiscoveryOptions struct {
	Prober         *Prober
	CriticalBots   []string
	Logger         *slog.Logger
	RobotsTimeout  time.Duration
	SitemapTimeout time.Duration
	FeedTimeout    time.Duration
}

// NewDiscovery builds the discovery check runner.
func NewDiscovery(opts DiscoveryOptions) *Discovery {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Discovery{
		prober:         opts.Prober,
		criticalBots:   opts.CriticalBots,
		logger:         logger,
		robotsTimeout:  opts.RobotsTimeout,
		sitemapTimeout: opts.SitemapTimeout,
		feedTimeout:    opts.FeedTimeout,
		llmsTimeout:    opts.RobotsTimeout,
	}
	if d.robotsTimeout <= 0 {
		d.robotsTimeout = 5 * time.Second
	}
	if d.sitemapTimeout <= 0 {
		d.sitemapTimeout = 8 * time.Second
	}
	if d.feedTimeout <= 0 {
		d.feedTimeout = 8 * time.Second
	}
	if d.llmsTimeout <= 0 {
		d.llmsTimeout = 5 * time.Second
	}
	return d
}
