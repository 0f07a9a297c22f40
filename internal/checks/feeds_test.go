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

func TestRankFeedsOrdering(t *testing.T) {
	feeds := []types.FeedInfo{
		{URL: "e", Source: types.FeedSourceCommonPath},
		{URL: "d", Accessible: true, IsEmpty: true, Source: types.FeedSourceNative},
		{URL: "c", Accessible: true, ProductCount: 5, Source: types.FeedSourceHTML},
		{URL: "b", Accessible: true, ProductCount: 40, Source: types.FeedSourceCommonPath},
		{URL: "a", Accessible: true, ProductCount: 40, Source: types.FeedSourceNative},
	}
	RankFeeds(feeds)

	got := make([]string, len(feeds))
	for i, f := range feeds {
		got[i] = f.URL
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestRankFeedsIsDeterministic(t *testing.T) {
	build := func() []types.FeedInfo {
		return []types.FeedInfo{
			{URL: "x", Accessible: true, ProductCount: 3, Source: types.FeedSourceHTML},
			{URL: "y", Accessible: true, ProductCount: 3, Source: types.FeedSourceRobots},
			{URL: "z", Accessible: true, ProductCount: 3, Source: types.FeedSourceHTML},
		}
	}
	first := build()
	RankFeeds(first)
	for i := 0; i < 5; i++ {
		again := build()
		RankFeeds(again)
		assert.Equal(t, first, again)
	}
}

const shopifyFeedBody = `{
  "products": [
    {"id": 1, "title": "Alpha Mug", "handle": "alpha-mug", "variants": [{"price": "12.00", "sku": "MUG-1"}], "sku": "MUG-1"},
    {"id": 2, "title": "Beta Mug", "handle": "beta-mug", "variants": [{"price": "14.00"}], "sku": "MUG-2"}
  ]
}`

func TestDiscoverFeedsNativeShopify(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(shopifyFeedBody))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := NewDiscovery(DiscoveryOptions{Prober: NewProber(ProberOptions{Client: server.Client()})})
	feeds, primary := d.DiscoverFeeds(context.Background(), server.URL, "", "Shopify")

	require.NotNil(t, primary)
	assert.Equal(t, "json", primary.Type)
	assert.Equal(t, types.FeedSourceNative, primary.Source)
	assert.Equal(t, 2, primary.ProductCount)
	assert.True(t, primary.HasRequiredFields)
	assert.InDelta(t, 1.0, primary.GtinCoverage, 0.001)
	assert.NotEmpty(t, feeds)
}

func TestDiscoverFeedsDeduplicates(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/products.json", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(shopifyFeedBody))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := NewDiscovery(DiscoveryOptions{Prober: NewProber(ProberOptions{Client: server.Client()})})
	// Native path and common path both point at /products.json; the HTML
	// link does too. Only one fetch should happen.
	html := `<a href="/products.json">feed</a>`
	_, primary := d.DiscoverFeeds(context.Background(), server.URL, html, "Shopify")

	require.NotNil(t, primary)
	assert.Equal(t, 1, hits)
}

func TestClassifyXMLFeed(t *testing.T) {
	body := `<?xml version="1.0"?>
<rss><channel>
<item><g:id>1</g:id><g:title>A</g:title><g:price>9 USD</g:price><g:link>http://x/a</g:link><g:gtin>123</g:gtin></item>
<item><g:id>2</g:id><g:title>B</g:title><g:price>8 USD</g:price><g:link>http://x/b</g:link></item>
</channel></rss>`

	info := types.FeedInfo{Type: "xml"}
	classifyXMLFeed(&info, body)
	assert.Equal(t, 2, info.ProductCount)
	assert.True(t, info.HasRequiredFields)
	assert.InDelta(t, 0.5, info.GtinCoverage, 0.001)
}

func TestProductFeedMissingFieldsIsPartial(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products": [{"title": "Nameless"}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := NewDiscovery(DiscoveryOptions{Prober: NewProber(ProberOptions{Client: server.Client()})})
	check, _, primary := d.ProductFeed(context.Background(), server.URL, "", "Shopify")

	require.NotNil(t, primary)
	assert.Equal(t, types.StatusPartial, check.Status)
	assert.Equal(t, int(float64(MaxProductFeed)*0.6), check.Score)
	assert.Contains(t, primary.MissingFields, "id")
	assert.Contains(t, primary.MissingFields, "price")
}

func TestProductFeedNoneFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	d := NewDiscovery(DiscoveryOptions{Prober: NewProber(ProberOptions{Client: server.Client()})})
	check, _, primary := d.ProductFeed(context.Background(), server.URL, "", "Unknown")

	// Every candidate is inaccessible; the fallback primary exists but the
	// check only grants the minimal tier.
	if primary == nil {
		assert.Equal(t, types.StatusFail, check.Status)
	} else {
		assert.Equal(t, types.StatusPartial, check.Status)
		assert.Equal(t, int(float64(MaxProductFeed)*0.2), check.Score)
	}
}
