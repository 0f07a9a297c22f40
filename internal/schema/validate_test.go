package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProductRequiredFields(t *testing.T) {
	result := ValidateProduct(map[string]any{"@type": "Product"})
	assert.True(t, result.Found)
	assert.False(t, result.Valid)
	assert.ElementsMatch(t, []string{"name", "description", "image"}, result.MissingFields)
}

func TestValidateProductInvalidFields(t *testing.T) {
	result := ValidateProduct(map[string]any{
		"@type":       "Product",
		"name":        "ab",
		"description": "short name and a relative image",
		"image":       "/img/product.jpg",
	})
	assert.True(t, result.Found)
	assert.False(t, result.Valid)
	assert.ElementsMatch(t, []string{"name", "image"}, result.InvalidFields)
	assert.Empty(t, result.MissingFields)
}

func TestValidateProductNotFound(t *testing.T) {
	result := ValidateProduct(nil)
	assert.False(t, result.Found)
	assert.False(t, result.Valid)
}

func TestValidateOfferPriceRules(t *testing.T) {
	cases := []struct {
		name    string
		offer   map[string]any
		valid   bool
		invalid []string
		missing []string
	}{
		{
			name:  "complete",
			offer: map[string]any{"price": "10.00", "priceCurrency": "USD", "availability": "https://schema.org/InStock"},
			valid: true,
		},
		{
			name:    "negative price",
			offer:   map[string]any{"price": "-5", "priceCurrency": "USD"},
			invalid: []string{"price"},
		},
		{
			name:    "unknown currency",
			offer:   map[string]any{"price": "5", "priceCurrency": "XXX"},
			invalid: []string{"priceCurrency"},
		},
		{
			name:    "no price at all",
			offer:   map[string]any{"priceCurrency": "USD"},
			missing: []string{"price"},
		},
		{
			name:  "lowPrice accepted",
			offer: map[string]any{"lowPrice": "5", "highPrice": "15", "priceCurrency": "EUR"},
			valid: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidateOffer(tc.offer)
			assert.True(t, result.Found)
			assert.Equal(t, tc.valid, result.Valid)
			if len(tc.invalid) > 0 {
				assert.ElementsMatch(t, tc.invalid, result.InvalidFields)
			}
			if len(tc.missing) > 0 {
				assert.ElementsMatch(t, tc.missing, result.MissingFields)
			}
		})
	}
}

func TestValidateOfferAvailabilityOnlyWarns(t *testing.T) {
	result := ValidateOffer(map[string]any{
		"price": "5", "priceCurrency": "USD", "availability": "MostlyAvailable",
	})
	assert.True(t, result.Valid)
	assert.NotEmpty(t, result.Warnings)
}

func TestValidateOrganization(t *testing.T) {
	result := ValidateOrganization(map[string]any{"@type": "Organization"})
	assert.True(t, result.Found)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"name"}, result.MissingFields)

	complete := ValidateOrganization(map[string]any{
		"@type":        "Organization",
		"name":         "Workshop & Co",
		"url":          "https://shop.example.com",
		"logo":         "https://shop.example.com/logo.png",
		"contactPoint": map[string]any{"@type": "ContactPoint", "email": "help@example.com"},
		"address":      map[string]any{"@type": "PostalAddress", "streetAddress": "1 Main St"},
		"sameAs":       []any{"https://instagram.com/workshopco"},
	})
	assert.True(t, complete.Valid)
	assert.Empty(t, complete.Warnings)
}

func TestValidateReturnPolicyNeverInvalid(t *testing.T) {
	empty := ValidateReturnPolicy(map[string]any{"@type": "MerchantReturnPolicy"})
	assert.True(t, empty.Found)
	assert.True(t, empty.Valid, "a found return policy is always valid")
	assert.Len(t, empty.Warnings, 4)

	complete := ValidateReturnPolicy(map[string]any{
		"@type":              "MerchantReturnPolicy",
		"merchantReturnDays": 30,
		"returnMethod":       "https://schema.org/ReturnByMail",
		"returnFees":         "https://schema.org/FreeReturn",
		"applicableCountry":  "US",
	})
	assert.True(t, complete.Valid)
	assert.Empty(t, complete.Warnings)
}

func TestValidateWebSiteSearchAction(t *testing.T) {
	without := ValidateWebSite(map[string]any{"@type": "WebSite", "name": "Shop"})
	assert.True(t, without.Valid)
	assert.NotEmpty(t, without.Warnings)

	with := ValidateWebSite(map[string]any{
		"@type":           "WebSite",
		"name":            "Shop",
		"potentialAction": map[string]any{"@type": "SearchAction", "target": "https://shop.example.com/search?q={q}"},
	})
	assert.True(t, with.Valid)
	assert.Empty(t, with.Warnings)
}
