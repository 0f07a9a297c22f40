package checks

import (
	"context"
	"fmt"
	"strings"

	"agentaudit/pkg/types"
)

var sitemapPaths = []string{"/sitemap.xml", "/sitemap_index.xml", "/sitemap-index.xml"}

// Sitemap probes the standard sitemap locations in order; the first 200
// response that looks like a sitemap document wins.
func (d *Discovery) Sitemap(ctx context.Context, baseURL string) types.Check {
	check := types.Check{
		ID:       IDSitemap,
		Name:     "Sitemap",
		Category: types.CategoryDiscovery,
		MaxScore: MaxSitemap,
	}

	base := strings.TrimSuffix(baseURL, "/")
	for _, path := range sitemapPaths {
		resp, err := d.prober.Get(ctx, base+path, d.sitemapTimeout)
		if err != nil || !resp.OK() {
			continue
		}
		if !strings.Contains(resp.Body, "<urlset") && !strings.Contains(resp.Body, "<sitemapindex") {
			continue
		}
		urlCount := strings.Count(resp.Body, "<loc")
		check.Status = types.StatusPass
		check.Score = MaxSitemap
		check.Details = fmt.Sprintf("Sitemap found at %s with %d URLs", path, urlCount)
		check.Data = map[string]any{
			"path":     path,
			"urlCount": urlCount,
			"isIndex":  strings.Contains(resp.Body, "<sitemapindex"),
		}
		return check
	}

	check.Status = types.StatusFail
	check.Details = "No sitemap found at any standard location"
	return check
}
