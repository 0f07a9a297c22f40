package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"agentaudit/internal/schema"
	"agentaudit/pkg/types"
)

func TestHTTPSCheck(t *testing.T) {
	secure := HTTPSCheck("https://shop.example.com/products/mug")
	assert.Equal(t, types.StatusPass, secure.Status)
	assert.Equal(t, MaxHTTPS, secure.Score)

	insecure := HTTPSCheck("http://shop.example.com")
	assert.Equal(t, types.StatusFail, insecure.Status)
	assert.Zero(t, insecure.Score)
}

func TestUCPComplianceComposite(t *testing.T) {
	fullOffer := found()
	offer := schema.Offer{ShippingDetails: map[string]any{"shippingRate": map[string]any{"value": "0"}}}
	policy := schema.ReturnPolicy{ApplicableCountry: "US"}

	check := UCPComplianceCheck(fullOffer, offer, policy)
	assert.Equal(t, 10, check.Score)
	assert.Equal(t, types.StatusPass, check.Status)

	// Valid offer with warnings, bare shipping details, no country: 4+1+0.
	warned := found("missing recommended field: availability")
	check = UCPComplianceCheck(warned, schema.Offer{ShippingDetails: map[string]any{}}, schema.ReturnPolicy{})
	assert.Equal(t, 5, check.Score)
	assert.Equal(t, types.StatusPartial, check.Status)

	// Nothing at all.
	check = UCPComplianceCheck(types.ValidationResult{}, schema.Offer{}, schema.ReturnPolicy{})
	assert.Zero(t, check.Score)
	assert.Equal(t, types.StatusFail, check.Status)

	// Invalid offer still earns the minimal sub-score.
	invalid := types.ValidationResult{Found: true, MissingFields: []string{"price"}}
	check = UCPComplianceCheck(invalid, schema.Offer{}, schema.ReturnPolicy{})
	assert.Equal(t, 2, check.Score)
	assert.Equal(t, types.StatusPartial, check.Status)
}

func TestPaymentMethodsTiers(t *testing.T) {
	full := PaymentMethodsCheck([]string{"stripe", "paypal", "applePay"}, PlatformInfo{})
	assert.Equal(t, types.StatusPass, full.Status)
	assert.Equal(t, MaxPaymentMethods, full.Score)

	some := PaymentMethodsCheck([]string{"stripe"}, PlatformInfo{})
	assert.Equal(t, types.StatusPartial, some.Status)
	assert.Equal(t, 6, some.Score)

	platformOnly := PaymentMethodsCheck(nil, PlatformInfo{Name: "Shopify", Detected: true})
	assert.Equal(t, types.StatusPartial, platformOnly.Status)
	assert.Equal(t, 3, platformOnly.Score)

	nothing := PaymentMethodsCheck(nil, PlatformInfo{Name: "Unknown"})
	assert.Equal(t, types.StatusFail, nothing.Status)
	assert.Zero(t, nothing.Score)
}

func TestDetectPaymentRailsAndAPIPatterns(t *testing.T) {
	html := `<html><head>
	<script src="https://js.stripe.com/v3/"></script>
	<script src="https://www.paypal.com/sdk/js"></script>
	</head><body>
	<div data-klarna-id="x"></div>
	<a href="/api/v2/products">api</a>
	<script>fetch('/graphql')</script>
	</body></html>`

	rails := DetectPaymentRails(html)
	assert.ElementsMatch(t, []string{"stripe", "paypal", "klarna"}, rails)

	patterns := DetectAPIPatterns(html)
	assert.ElementsMatch(t, []string{"graphql", "rest"}, patterns)
}

func TestFingerprintPlatform(t *testing.T) {
	shopify := FingerprintPlatform(`<link href="https://cdn.shopify.com/s/files/theme.css">`)
	assert.Equal(t, "Shopify", shopify.Name)
	assert.Equal(t, "high", shopify.Confidence)

	custom := FingerprintPlatform(`<button class="add-to-cart">Buy</button>`)
	assert.Equal(t, "Custom", custom.Name)
	assert.Equal(t, "medium", custom.Confidence)

	unknown := FingerprintPlatform(`<html><body>Just a blog</body></html>`)
	assert.False(t, unknown.Detected)
	assert.Equal(t, "Unknown", unknown.Name)
}
