package schema

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"agentaudit/pkg/types"
)

// ProductPageFetcher retrieves the HTML of a candidate product page.
type ProductPageFetcher func(ctx context.Context, productURL string) (string, error)

// SmartResult is the outcome of the smart extraction pass.
type SmartResult struct {
	Schemas         []types.ExtractedSchema
	Quality         Quality
	PageType        PageType
	UsedProductPage bool
	ProductPageURL  string
}

// productLinkPatterns is the prioritized ladder for locating one product
// link on a category page. Earlier patterns win.
var productLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`href="([^"]*/products/[^"?#]+)"`),
	regexp.MustCompile(`href="([^"]*/product/[^"?#]+)"`),
	regexp.MustCompile(`href="([^"]*/p/[^"?#]+)"`),
	regexp.MustCompile(`href="([^"]*/item/[^"?#]+)"`),
	regexp.MustCompile(`href="([^"]*/dp/[^"?#]+)"`),
}

// categoryLookingLink rejects links that lead to another listing page.
var categoryLookingLink = regexp.MustCompile(`(?i)/(collections?|category|categories|c)/[^/]*/?$`)

// ExtractSmartly extracts structured data from the submitted page and
// decides whether a single follow-up fetch of a product page is worth the
// cost. The decision policy, top to bottom:
//
//  1. Full quality on the submitted page: use it.
//  2. Category page with partial quality: use it as-is. This deliberately
//     skips the follow-up fetch; partial listing data is good enough and
//     the extra fetch rarely pays for itself.
//  3. Category page with no structured data: follow one product link and
//     re-extract there, adopting the product page result when it yields
//     anything at all.
//  4. Anything else: use what was extracted.
//
// At most one extra network fetch happens per call.
func ExtractSmartly(ctx context.Context, html string, pageURL *url.URL, fetchProduct ProductPageFetcher, logger *slog.Logger) SmartResult {
	if logger == nil {
		logger = slog.Default()
	}

	schemas := ExtractJSONLD(html)
	quality := AssessQuality(schemas)
	pageType := DetectPageType(pageURL, html)

	result := SmartResult{Schemas: schemas, Quality: quality, PageType: pageType}

	if quality.Level == QualityFull {
		return result
	}
	if !pageType.IsCategory {
		return result
	}
	if quality.Level == QualityPartial {
		return result
	}

	productURL := FindProductLink(html, pageURL)
	if productURL == "" || fetchProduct == nil {
		return result
	}

	productHTML, err := fetchProduct(ctx, productURL)
	if err != nil {
		logger.Debug("product page fetch failed, keeping original extraction", "url", productURL, "error", err)
		return result
	}

	productSchemas := ExtractJSONLD(productHTML)
	productQuality := AssessQuality(productSchemas)
	if productQuality.Level == QualityNone {
		return result
	}

	result.Schemas = productSchemas
	result.Quality = productQuality
	result.UsedProductPage = true
	result.ProductPageURL = productURL
	return result
}

// FindProductLink locates a single candidate product link in the page,
// resolved against the page URL. Category/collection-looking targets are
// rejected.
func FindProductLink(html string, base *url.URL) string {
	for _, pattern := range productLinkPatterns {
		matches := pattern.FindAllStringSubmatch(html, 10)
		for _, match := range matches {
			href := strings.TrimSpace(match[1])
			if href == "" || categoryLookingLink.MatchString(href) {
				continue
			}
			if base != nil {
				if resolved, err := base.Parse(href); err == nil {
					return resolved.String()
				}
				continue
			}
			return href
		}
	}
	return ""
}
