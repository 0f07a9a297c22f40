package checks

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"agentaudit/pkg/types"
)

var (
	ucpManifestPaths = []string{"/.well-known/ucp.json", "/.well-known/commerce.json", "/api/commerce/manifest"}
	mcpManifestPaths = []string{"/.well-known/mcp.json", "/mcp/capabilities", "/.well-known/ai-plugin.json"}
	sapIndicators    = []string{"hybris", "sap-commerce", "yacceleratorstorefront"}
)

// ManifestResult records the outcome of a well-known manifest probe chain.
type ManifestResult struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
	// Equivalent marks detection via a known-equivalent platform
	// integration rather than a published manifest.
	Equivalent bool `json:"equivalent,omitempty"`
}

// Protocol runs the distribution/protocol probes.
type Protocol struct {
	prober          *Prober
	logger          *slog.Logger
	manifestTimeout time.Duration
}

// NewProtocol builds the protocol check runner.
func NewProtocol(prober *Prober, manifestTimeout time.Duration, logger *slog.Logger) *Protocol {
	if logger == nil {
		logger = slog.Default()
	}
	if manifestTimeout <= 0 {
		manifestTimeout = 3 * time.Second
	}
	return &Protocol{prober: prober, logger: logger, manifestTimeout: manifestTimeout}
}

// ProbeUCPManifest walks the UCP well-known paths; the first 200 wins.
func (p *Protocol) ProbeUCPManifest(ctx context.Context, baseURL string) ManifestResult {
	return p.probePaths(ctx, baseURL, ucpManifestPaths)
}

// ProbeMCPManifest walks the MCP well-known paths. SAP Commerce indicators
// in the page HTML short-circuit the probe entirely: that platform ships an
// equivalent integration, so the probe would only burn budget.
func (p *Protocol) ProbeMCPManifest(ctx context.Context, baseURL, html string) ManifestResult {
	for _, indicator := range sapIndicators {
		if strings.Contains(html, indicator) {
			return ManifestResult{Found: true, Equivalent: true}
		}
	}
	return p.probePaths(ctx, baseURL, mcpManifestPaths)
}

func (p *Protocol) probePaths(ctx context.Context, baseURL string, paths []string) ManifestResult {
	base := strings.TrimSuffix(baseURL, "/")
	for _, path := range paths {
		resp, err := p.prober.Get(ctx, base+path, p.manifestTimeout)
		if err != nil {
			continue
		}
		if resp.StatusCode == 200 && !looksLikeHTML(strings.TrimSpace(resp.Body)) {
			return ManifestResult{Found: true, Path: path}
		}
	}
	return ManifestResult{}
}

// ProbeManifests dispatches the UCP and MCP probe chains concurrently and
// waits for both.
func (p *Protocol) ProbeManifests(ctx context.Context, baseURL, html string) (ucp, mcp ManifestResult) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ucp = p.ProbeUCPManifest(ctx, baseURL)
	}()
	go func() {
		defer wg.Done()
		mcp = p.ProbeMCPManifest(ctx, baseURL, html)
	}()
	wg.Wait()
	return ucp, mcp
}

// UCPManifestCheck is the legacy distribution check for the UCP probe.
func UCPManifestCheck(result ManifestResult) types.Check {
	return manifestCheck(IDUCPManifest, "UCP manifest", result)
}

// MCPManifestCheck is the legacy distribution check for the MCP probe.
func MCPManifestCheck(result ManifestResult) types.Check {
	return manifestCheck(IDMCPManifest, "MCP manifest", result)
}

func manifestCheck(id, name string, result ManifestResult) types.Check {
	check := types.Check{
		ID:       id,
		Name:     name,
		Category: types.CategoryDistribution,
		MaxScore: 0,
		Data:     map[string]any{"manifest": result},
	}
	switch {
	case result.Equivalent:
		check.Status = types.StatusPass
		check.Details = name + " equivalent provided by platform integration"
	case result.Found:
		check.Status = types.StatusPass
		check.Details = name + " found at " + result.Path
	default:
		check.Status = types.StatusFail
		check.Details = "No " + name + " published"
	}
	return check
}
