package checks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"agentaudit/pkg/types"
)

// commonFeedPaths are probed when no feed was discovered elsewhere.
var commonFeedPaths = []string{
	"/products.json",
	"/product-feed.xml",
	"/feeds/products.xml",
	"/feed/products",
	"/catalog.xml",
}

// nativeFeedPaths maps a fingerprinted platform to its built-in feed path.
var nativeFeedPaths = map[string]string{
	"Shopify":     "/products.json",
	"BigCommerce": "/xmlsitemap.php?type=products",
}

var feedLinkPattern = regexp.MustCompile(`(?i)(product[s]?[-_/]?(feed|catalog)|feed[s]?[-_/]?product|merchant[-_]?feed|products\.(json|xml|csv))`)

// feedRequiredFields are the attributes a shopping feed item needs to be
// usable by agent surfaces.
var feedRequiredFields = []string{"id", "title", "price", "link"}

// DiscoverFeeds gathers product-feed candidates from four independent
// sources (platform-native path, robots.txt Sitemap directives, HTML
// link/anchor tags, and common paths), classifies each by fetching it,
// dedupes by absolute URL, and ranks the result. The returned primary feed
// is the best accessible non-empty candidate, falling back to the best
// candidate of any kind, or nil.
func (d *Discovery) DiscoverFeeds(ctx context.Context, baseURL, html, platform string) ([]types.FeedInfo, *types.FeedInfo) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, nil
	}

	type candidate struct {
		url    string
		source types.FeedSource
	}
	var candidates []candidate
	add := func(raw string, source types.FeedSource) {
		resolved, err := base.Parse(strings.TrimSpace(raw))
		if err != nil {
			return
		}
		candidates = append(candidates, candidate{url: resolved.String(), source: source})
	}

	if path, ok := nativeFeedPaths[platform]; ok {
		add(path, types.FeedSourceNative)
	}

	for _, sitemapURL := range d.feedLinksFromRobots(ctx, base) {
		add(sitemapURL, types.FeedSourceRobots)
	}

	for _, link := range feedLinksFromHTML(html) {
		add(link, types.FeedSourceHTML)
	}

	for _, path := range commonFeedPaths {
		add(path, types.FeedSourceCommonPath)
	}

	seen := make(map[string]struct{}, len(candidates))
	feeds := make([]types.FeedInfo, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.url]; dup {
			continue
		}
		seen[c.url] = struct{}{}
		feeds = append(feeds, d.classifyFeed(ctx, c.url, c.source))
	}

	RankFeeds(feeds)

	for i := range feeds {
		if feeds[i].Accessible && !feeds[i].IsEmpty {
			return feeds, &feeds[i]
		}
	}
	if len(feeds) > 0 {
		return feeds, &feeds[0]
	}
	return feeds, nil
}

// feedLinksFromRobots pulls Sitemap: directives that look like feeds.
func (d *Discovery) feedLinksFromRobots(ctx context.Context, base *url.URL) []string {
	resp, err := d.prober.Get(ctx, base.Scheme+"://"+base.Host+"/robots.txt", d.robotsTimeout)
	if err != nil || !resp.OK() {
		return nil
	}
	var links []string
	for _, line := range strings.Split(resp.Body, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		// The cut above splits on the scheme colon too; rejoin.
		full := strings.TrimSpace(value)
		if idx := strings.Index(strings.ToLower(line), "sitemap:"); idx >= 0 {
			full = strings.TrimSpace(line[idx+len("sitemap:"):])
		}
		if feedLinkPattern.MatchString(full) {
			links = append(links, full)
		}
	}
	return links
}

// feedLinksFromHTML scans <link> and <a> tags for feed-looking targets.
func feedLinksFromHTML(html string) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		return nil
	}
	var links []string
	doc.Find("link[href],a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		if feedLinkPattern.MatchString(href) {
			links = append(links, href)
		}
	})
	return links
}

// classifyFeed fetches one candidate and derives its type, product count,
// and field coverage. Fetch failures yield an inaccessible entry.
func (d *Discovery) classifyFeed(ctx context.Context, feedURL string, source types.FeedSource) types.FeedInfo {
	info := types.FeedInfo{URL: feedURL, Type: "unknown", Source: source, MissingFields: []string{}}

	resp, err := d.prober.Get(ctx, feedURL, d.feedTimeout)
	if err != nil || !resp.OK() {
		info.IsEmpty = true
		return info
	}
	info.Accessible = true

	body := resp.Body
	contentType := strings.ToLower(resp.ContentType)
	trimmed := strings.TrimSpace(body)

	switch {
	case strings.Contains(contentType, "json") || strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		info.Type = "json"
		classifyJSONFeed(&info, trimmed)
	case strings.Contains(contentType, "xml") || strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<"):
		info.Type = "xml"
		classifyXMLFeed(&info, body)
	case strings.Contains(contentType, "csv") || looksLikeCSV(trimmed):
		info.Type = "csv"
		classifyCSVFeed(&info, trimmed)
	default:
		info.IsEmpty = true
	}
	return info
}

func classifyJSONFeed(info *types.FeedInfo, body string) {
	var parsed any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		info.IsEmpty = true
		return
	}

	var items []any
	switch v := parsed.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range []string{"products", "items"} {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
	}

	info.ProductCount = len(items)
	info.IsEmpty = len(items) == 0
	if info.IsEmpty {
		return
	}

	first, ok := items[0].(map[string]any)
	if !ok {
		return
	}
	info.MissingFields = missingFeedFields(first)
	info.HasRequiredFields = len(info.MissingFields) == 0

	withGtin := 0
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if hasAnyKey(m, "gtin", "gtin13", "barcode", "sku", "mpn") {
			withGtin++
		}
	}
	info.GtinCoverage = float64(withGtin) / float64(len(items))
}

// missingFeedFields checks the first item for the required attributes,
// accepting common aliases per field.
func missingFeedFields(item map[string]any) []string {
	aliases := map[string][]string{
		"id":    {"id", "sku", "g:id"},
		"title": {"title", "name", "g:title"},
		"price": {"price", "g:price", "variants"},
		"link":  {"link", "url", "handle", "g:link"},
	}
	missing := []string{}
	for _, field := range feedRequiredFields {
		if !hasAnyKey(item, aliases[field]...) {
			missing = append(missing, field)
		}
	}
	return missing
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return true
		}
	}
	return false
}

func classifyXMLFeed(info *types.FeedInfo, body string) {
	// Take the max of the three common item tags; feeds disagree on which
	// one they use.
	count := strings.Count(body, "<item")
	if c := strings.Count(body, "<product"); c > count {
		count = c
	}
	if c := strings.Count(body, "<entry"); c > count {
		count = c
	}
	info.ProductCount = count
	info.IsEmpty = count == 0
	if info.IsEmpty {
		return
	}

	missing := []string{}
	for field, markers := range map[string][]string{
		"id":    {"<g:id", "<id"},
		"title": {"<g:title", "<title"},
		"price": {"<g:price", "<price"},
		"link":  {"<g:link", "<link"},
	} {
		found := false
		for _, marker := range markers {
			if strings.Contains(body, marker) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	info.MissingFields = missing
	info.HasRequiredFields = len(missing) == 0

	gtinCount := strings.Count(body, "<g:gtin")
	if gtinCount == 0 {
		gtinCount = strings.Count(body, "<gtin")
	}
	if count > 0 {
		coverage := float64(gtinCount) / float64(count)
		if coverage > 1 {
			coverage = 1
		}
		info.GtinCoverage = coverage
	}
}

func classifyCSVFeed(info *types.FeedInfo, body string) {
	lines := strings.Split(body, "\n")
	rows := 0
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) != "" {
			rows++
		}
	}
	info.ProductCount = rows
	info.IsEmpty = rows == 0
	if rows == 0 || len(lines) == 0 {
		return
	}

	header := strings.ToLower(lines[0])
	missing := []string{}
	for _, field := range feedRequiredFields {
		if !strings.Contains(header, field) {
			missing = append(missing, field)
		}
	}
	info.MissingFields = missing
	info.HasRequiredFields = len(missing) == 0
	if strings.Contains(header, "gtin") {
		info.GtinCoverage = 1
	}
}

func looksLikeCSV(body string) bool {
	firstLine, _, _ := strings.Cut(body, "\n")
	return strings.Count(firstLine, ",") >= 2
}

// feedSourceRank orders sources for ranking; lower is better.
var feedSourceRank = map[types.FeedSource]int{
	types.FeedSourceNative:     0,
	types.FeedSourceRobots:     1,
	types.FeedSourceSitemap:    2,
	types.FeedSourceHTML:       3,
	types.FeedSourceCommonPath: 4,
	types.FeedSourceGuessed:    5,
}

// RankFeeds sorts feeds in place: accessible before not, non-empty before
// empty, higher product count before lower, then native before discovered
// sources.
func RankFeeds(feeds []types.FeedInfo) {
	sort.SliceStable(feeds, func(i, j int) bool {
		a, b := feeds[i], feeds[j]
		if a.Accessible != b.Accessible {
			return a.Accessible
		}
		if a.IsEmpty != b.IsEmpty {
			return !a.IsEmpty
		}
		if a.ProductCount != b.ProductCount {
			return a.ProductCount > b.ProductCount
		}
		return feedSourceRank[a.Source] < feedSourceRank[b.Source]
	})
}

// ProductFeed discovers and scores the product feed for the site.
func (d *Discovery) ProductFeed(ctx context.Context, baseURL, html, platform string) (types.Check, []types.FeedInfo, *types.FeedInfo) {
	check := types.Check{
		ID:       IDProductFeed,
		Name:     "Product feed",
		Category: types.CategoryDiscovery,
		MaxScore: MaxProductFeed,
	}

	feeds, primary := d.DiscoverFeeds(ctx, baseURL, html, platform)

	switch {
	case primary == nil:
		check.Status = types.StatusFail
		check.Details = "No product feed discovered"
	case primary.Accessible && !primary.IsEmpty && primary.HasRequiredFields:
		check.Status = types.StatusPass
		check.Score = MaxProductFeed
		check.Details = fmt.Sprintf("Usable %s feed with %d products at %s", primary.Type, primary.ProductCount, primary.URL)
	case primary.Accessible && !primary.IsEmpty:
		check.Status = types.StatusPartial
		check.Score = int(float64(MaxProductFeed) * 0.6)
		check.Details = fmt.Sprintf("Feed at %s is missing required fields: %s", primary.URL, strings.Join(primary.MissingFields, ", "))
	default:
		check.Status = types.StatusPartial
		check.Score = int(float64(MaxProductFeed) * 0.2)
		check.Details = fmt.Sprintf("Feed candidate at %s is not usable", primary.URL)
	}

	if primary != nil {
		check.Data = map[string]any{"primaryFeed": *primary, "candidates": len(feeds)}
	}
	return check, feeds, primary
}
