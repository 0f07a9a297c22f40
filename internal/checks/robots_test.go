package checks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentaudit/pkg/types"
)

var testBots = []string{"GPTBot", "ClaudeBot", "PerplexityBot", "Google-Extended", "Bingbot"}

func TestParseRobotsExplicitBeatsWildcard(t *testing.T) {
	body := `
User-agent: *
Disallow: /

User-agent: GPTBot
Allow: /
`
	rules := ParseRobots(body, testBots)
	assert.True(t, rules.Allowed("GPTBot"))
	assert.False(t, rules.Allowed("ClaudeBot"))
	assert.False(t, rules.Allowed("Bingbot"))
}

func TestParseRobotsWildcardNeverOverridesExplicit(t *testing.T) {
	// The wildcard section comes after the explicit one; the explicit
	// verdict must still stand.
	body := `
User-agent: GPTBot
Allow: /

User-agent: *
Disallow: /
`
	rules := ParseRobots(body, testBots)
	assert.True(t, rules.Allowed("GPTBot"))
	assert.False(t, rules.Allowed("PerplexityBot"))
}

func TestParseRobotsLastApplicableRuleWins(t *testing.T) {
	body := `
User-agent: ClaudeBot
Disallow: /
Allow: /
`
	rules := ParseRobots(body, testBots)
	assert.True(t, rules.Allowed("ClaudeBot"))

	flipped := `
User-agent: ClaudeBot
Allow: /
Disallow: /
`
	rules = ParseRobots(flipped, testBots)
	assert.False(t, rules.Allowed("ClaudeBot"))
}

func TestParseRobotsEmptyDisallowAllows(t *testing.T) {
	body := `
User-agent: *
Disallow:
`
	rules := ParseRobots(body, testBots)
	for _, bot := range testBots {
		assert.True(t, rules.Allowed(bot), bot)
	}
}

func TestParseRobotsNonRootPathsIgnored(t *testing.T) {
	body := `
User-agent: *
Disallow: /checkout
Disallow: /cart
`
	rules := ParseRobots(body, testBots)
	for _, bot := range testBots {
		assert.True(t, rules.Allowed(bot), bot)
	}
}

func TestParseRobotsConsecutiveAgentsShareRules(t *testing.T) {
	body := `
User-agent: GPTBot
User-agent: ClaudeBot
Disallow: /
`
	rules := ParseRobots(body, testBots)
	assert.False(t, rules.Allowed("GPTBot"))
	assert.False(t, rules.Allowed("ClaudeBot"))
	assert.True(t, rules.Allowed("Bingbot"))
}

func TestParseRobotsAgentPrefixMatch(t *testing.T) {
	body := `
User-agent: google
Disallow: /
`
	rules := ParseRobots(body, testBots)
	assert.False(t, rules.Allowed("Google-Extended"))
	assert.True(t, rules.Allowed("GPTBot"))
}

func newTestDiscovery(robots string, status int) (*Discovery, *httptest.Server) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(robots))
	})
	server := httptest.NewServer(mux)
	d := NewDiscovery(DiscoveryOptions{
		Prober:       NewProber(ProberOptions{Client: server.Client()}),
		CriticalBots: testBots,
	})
	return d, server
}

func TestBotAccessAllAllowed(t *testing.T) {
	d, server := newTestDiscovery("User-agent: *\nAllow: /\n", http.StatusOK)
	defer server.Close()

	check := d.BotAccess(context.Background(), server.URL)
	assert.Equal(t, types.StatusPass, check.Status)
	assert.Equal(t, MaxBotAccess, check.Score)
}

func TestBotAccessMissingRobotsIsFullCredit(t *testing.T) {
	d, server := newTestDiscovery("", http.StatusNotFound)
	defer server.Close()

	check := d.BotAccess(context.Background(), server.URL)
	assert.Equal(t, types.StatusPass, check.Status)
	assert.Equal(t, MaxBotAccess, check.Score)
	assert.Equal(t, false, check.Data["robotsFound"])
}

func TestBotAccessTiers(t *testing.T) {
	// 4 of 5 allowed: high partial tier.
	d, server := newTestDiscovery("User-agent: GPTBot\nDisallow: /\n", http.StatusOK)
	defer server.Close()

	check := d.BotAccess(context.Background(), server.URL)
	require.Equal(t, types.StatusPartial, check.Status)
	assert.Equal(t, int(float64(MaxBotAccess)*0.7), check.Score)

	// All blocked: hard fail.
	d2, server2 := newTestDiscovery("User-agent: *\nDisallow: /\n", http.StatusOK)
	defer server2.Close()

	check = d2.BotAccess(context.Background(), server2.URL)
	assert.Equal(t, types.StatusFail, check.Status)
	assert.Zero(t, check.Score)
}
