package checks

import (
	"regexp"
	"strings"

	"agentaudit/pkg/types"
)

// PlatformInfo is the e-commerce platform fingerprint result.
type PlatformInfo struct {
	Name       string `json:"name"`
	Detected   bool   `json:"detected"`
	Confidence string `json:"confidence"` // high|medium|none
}

// platformSignature pairs a platform label with its HTML markers. The table
// is ordered: the first matching entry wins.
type platformSignature struct {
	name    string
	markers []string
}

var platformSignatures = []platformSignature{
	{"Shopify", []string{"cdn.shopify.com", "Shopify.theme", "shopify-section"}},
	{"WooCommerce", []string{"woocommerce", "wp-content/plugins/woocommerce"}},
	{"Magento", []string{"Magento", "mage/cookies", "static/version"}},
	{"BigCommerce", []string{"bigcommerce.com", "cdn11.bigcommerce"}},
	{"Salesforce Commerce Cloud", []string{"demandware.static", "dwanalytics"}},
	{"SAP Commerce", []string{"hybris", "sap-commerce", "yacceleratorstorefront"}},
	{"Shopware", []string{"shopware", "sw-web-app"}},
	{"PrestaShop", []string{"prestashop", "/modules/ps_"}},
	{"Squarespace", []string{"squarespace.com", "static1.squarespace"}},
	{"Wix", []string{"wix.com", "wixstatic.com"}},
}

var genericCommerceMarkers = []string{"add-to-cart", "add to cart", "product-price", "buy-now", "buy now", "checkout"}

// FingerprintPlatform identifies the e-commerce platform behind the page.
// No signature match but generic commerce markers present classifies the
// site as a custom storefront with medium confidence.
func FingerprintPlatform(html string) PlatformInfo {
	for _, sig := range platformSignatures {
		for _, marker := range sig.markers {
			if strings.Contains(html, marker) {
				return PlatformInfo{Name: sig.name, Detected: true, Confidence: "high"}
			}
		}
	}

	lowered := strings.ToLower(html)
	for _, marker := range genericCommerceMarkers {
		if strings.Contains(lowered, marker) {
			return PlatformInfo{Name: "Custom", Detected: true, Confidence: "medium"}
		}
	}
	return PlatformInfo{Name: "Unknown", Confidence: "none"}
}

// paymentSignature is one payment-rail detection rule. All matching rails
// are reported; there is no precedence between them.
type paymentSignature struct {
	name    string
	pattern *regexp.Regexp
}

var paymentSignatures = []paymentSignature{
	{"stripe", regexp.MustCompile(`(?i)(js\.stripe\.com|stripe\.js|data-stripe)`)},
	{"shopifyCheckout", regexp.MustCompile(`(?i)(shopify.*checkout|checkout\.shopify\.com)`)},
	{"paypal", regexp.MustCompile(`(?i)(paypal\.com/sdk|paypalobjects|data-paypal)`)},
	{"klarna", regexp.MustCompile(`(?i)(klarna|kp-button)`)},
	{"googlePay", regexp.MustCompile(`(?i)(pay\.google\.com|google-pay|googlepay)`)},
	{"applePay", regexp.MustCompile(`(?i)(apple-pay|applepay|apple_pay)`)},
}

// DetectPaymentRails returns every payment provider whose signature matches.
func DetectPaymentRails(html string) []string {
	var rails []string
	for _, sig := range paymentSignatures {
		if sig.pattern.MatchString(html) {
			rails = append(rails, sig.name)
		}
	}
	return rails
}

var apiPatternSignatures = []paymentSignature{
	{"graphql", regexp.MustCompile(`(?i)(/graphql|__graphql|graphql-endpoint)`)},
	{"rest", regexp.MustCompile(`(?i)/api/v[0-9]+/`)},
	{"storefront", regexp.MustCompile(`(?i)(storefront[-_]?api|headless[-_]?commerce|x-shopify-storefront)`)},
}

// DetectAPIPatterns returns every API shape whose signature matches.
func DetectAPIPatterns(html string) []string {
	var patterns []string
	for _, sig := range apiPatternSignatures {
		if sig.pattern.MatchString(html) {
			patterns = append(patterns, sig.name)
		}
	}
	return patterns
}

// PlatformCheck is the legacy distribution check wrapping the fingerprint.
// It is persisted for display but carries no scoring weight.
func PlatformCheck(platform PlatformInfo) types.Check {
	check := types.Check{
		ID:       IDPlatform,
		Name:     "E-commerce platform",
		Category: types.CategoryDistribution,
		MaxScore: 0,
		Data:     map[string]any{"platform": platform},
	}
	if platform.Detected {
		check.Status = types.StatusPass
		check.Details = "Detected platform: " + platform.Name
	} else {
		check.Status = types.StatusFail
		check.Details = "No e-commerce platform detected"
	}
	return check
}

// PaymentRailsCheck is the legacy distribution check listing detected rails.
func PaymentRailsCheck(rails []string) types.Check {
	check := types.Check{
		ID:       IDPaymentRails,
		Name:     "Payment rails",
		Category: types.CategoryDistribution,
		MaxScore: 0,
		Data:     map[string]any{"rails": rails},
	}
	if len(rails) > 0 {
		check.Status = types.StatusPass
		check.Details = "Detected payment rails: " + strings.Join(rails, ", ")
	} else {
		check.Status = types.StatusFail
		check.Details = "No payment rails detected"
	}
	return check
}

// APIPatternsCheck is the legacy distribution check listing API shapes.
func APIPatternsCheck(patterns []string) types.Check {
	check := types.Check{
		ID:       IDAPIPatterns,
		Name:     "Commerce API patterns",
		Category: types.CategoryDistribution,
		MaxScore: 0,
		Data:     map[string]any{"patterns": patterns},
	}
	if len(patterns) > 0 {
		check.Status = types.StatusPass
		check.Details = "Detected API patterns: " + strings.Join(patterns, ", ")
	} else {
		check.Status = types.StatusFail
		check.Details = "No commerce API patterns detected"
	}
	return check
}
