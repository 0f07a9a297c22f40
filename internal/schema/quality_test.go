package schema

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"agentaudit/pkg/types"
)

func productSchemas(withOffer, withGtin bool) []types.ExtractedSchema {
	product := map[string]any{"@type": "Product", "name": "Thing"}
	if withGtin {
		product["gtin13"] = "4006381333931"
	}
	if withOffer {
		product["offers"] = map[string]any{"@type": "Offer", "price": "10", "priceCurrency": "USD"}
	}
	return []types.ExtractedSchema{{Type: "Product", Data: product, Source: "json-ld"}}
}

func TestAssessQualityGating(t *testing.T) {
	// All three signals: full.
	q := AssessQuality(productSchemas(true, true))
	assert.Equal(t, QualityFull, q.Level)
	assert.True(t, q.HasProduct)
	assert.True(t, q.HasOffer)
	assert.True(t, q.HasGtin)

	// Dropping the identifier degrades to partial.
	q = AssessQuality(productSchemas(true, false))
	assert.Equal(t, QualityPartial, q.Level)

	// Dropping the offer degrades to partial.
	q = AssessQuality(productSchemas(false, true))
	assert.Equal(t, QualityPartial, q.Level)

	// No product at all: none.
	q = AssessQuality(nil)
	assert.Equal(t, QualityNone, q.Level)
}

func TestAssessQualityItemListAloneIsPartial(t *testing.T) {
	schemas := []types.ExtractedSchema{
		{Type: "ItemList", Data: map[string]any{"@type": "ItemList"}, Source: "json-ld"},
	}
	q := AssessQuality(schemas)
	assert.Equal(t, QualityPartial, q.Level)
	assert.True(t, q.HasItemList)
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestDetectPageTypeHomepage(t *testing.T) {
	pt := DetectPageType(mustURL(t, "https://shop.example.com/"), "<html></html>")
	assert.True(t, pt.IsHomepage)
	assert.Equal(t, ConfidenceHigh, pt.Confidence)
}

func TestDetectPageTypeProductHighConfidence(t *testing.T) {
	pt := DetectPageType(mustURL(t, "https://shop.example.com/products/walnut-desk"), productPageHTML)
	assert.True(t, pt.IsProduct)
	assert.Equal(t, ConfidenceHigh, pt.Confidence)
}

func TestDetectPageTypeCategory(t *testing.T) {
	html := `<html><body><div class="product-grid"><a href="/products/a">A</a></div></body></html>`
	pt := DetectPageType(mustURL(t, "https://shop.example.com/collections/mugs"), html)
	assert.True(t, pt.IsCategory)
}

func TestDetectPageTypeUnknownIsLow(t *testing.T) {
	pt := DetectPageType(mustURL(t, "https://shop.example.com/about"), "<html><body>About us</body></html>")
	assert.False(t, pt.IsProduct)
	assert.False(t, pt.IsCategory)
	assert.Equal(t, ConfidenceLow, pt.Confidence)
}
