package schema

import (
	"fmt"
	"strconv"
	"strings"

	"agentaudit/pkg/types"
)

// iso4217 is the accepted priceCurrency allowlist.
var iso4217 = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "CAD": {}, "AUD": {}, "NZD": {},
	"JPY": {}, "CNY": {}, "KRW": {}, "INR": {}, "BRL": {}, "MXN": {},
	"CHF": {}, "SEK": {}, "NOK": {}, "DKK": {}, "PLN": {}, "CZK": {},
	"HUF": {}, "RON": {}, "TRY": {}, "ZAR": {}, "SGD": {}, "HKD": {},
	"TWD": {}, "THB": {}, "MYR": {}, "IDR": {}, "PHP": {}, "VND": {},
	"AED": {}, "SAR": {}, "ILS": {}, "CLP": {}, "COP": {}, "ARS": {},
}

// availabilityStates are the recognised schema.org ItemAvailability values
// (compared after stripping the schema.org prefix).
var availabilityStates = map[string]struct{}{
	"InStock": {}, "OutOfStock": {}, "PreOrder": {}, "BackOrder": {},
	"Discontinued": {}, "InStoreOnly": {}, "OnlineOnly": {},
	"LimitedAvailability": {}, "PreSale": {}, "SoldOut": {},
}

func notFound() types.ValidationResult {
	return types.ValidationResult{
		MissingFields: []string{},
		InvalidFields: []string{},
		Warnings:      []string{},
	}
}

func finalize(r *types.ValidationResult) types.ValidationResult {
	r.Valid = r.Found && len(r.MissingFields) == 0 && len(r.InvalidFields) == 0
	return *r
}

// ValidateProduct checks a raw Product object against the rubric: required
// name/description/image, recommended brand/sku/gtin/offers (warnings),
// name length 3-300, image must be an http(s) URL.
func ValidateProduct(raw map[string]any) types.ValidationResult {
	if raw == nil {
		return notFound()
	}
	result := notFound()
	result.Found = true
	result.Schema = raw

	p := DecodeProduct(raw)

	if p.Name == "" {
		result.MissingFields = append(result.MissingFields, "name")
	} else if len(p.Name) < 3 || len(p.Name) > 300 {
		result.InvalidFields = append(result.InvalidFields, "name")
	}
	if p.Description == "" {
		result.MissingFields = append(result.MissingFields, "description")
	}
	if p.Image == "" {
		result.MissingFields = append(result.MissingFields, "image")
	} else if !strings.HasPrefix(p.Image, "http://") && !strings.HasPrefix(p.Image, "https://") {
		result.InvalidFields = append(result.InvalidFields, "image")
	}

	if p.Brand == "" {
		result.Warnings = append(result.Warnings, "missing recommended field: brand")
	}
	if p.SKU == "" {
		result.Warnings = append(result.Warnings, "missing recommended field: sku")
	}
	if p.Gtin == "" {
		result.Warnings = append(result.Warnings, "no GTIN-family identifier (gtin/sku/mpn/isbn)")
	}
	if !p.HasOffers {
		result.Warnings = append(result.Warnings, "missing recommended field: offers")
	}

	return finalize(&result)
}

// ValidateOffer checks a raw Offer object: a price-like field is required
// and must parse as a non-negative number; priceCurrency is required and
// must be a known ISO-4217 code; an unrecognised availability only warns.
func ValidateOffer(raw map[string]any) types.ValidationResult {
	if raw == nil {
		return notFound()
	}
	result := notFound()
	result.Found = true
	result.Schema = raw

	o := DecodeOffer(raw)

	if o.Price == "" {
		result.MissingFields = append(result.MissingFields, "price")
	} else if parsed, err := strconv.ParseFloat(o.Price, 64); err != nil || parsed < 0 {
		result.InvalidFields = append(result.InvalidFields, o.PriceField)
	}

	if o.PriceCurrency == "" {
		result.MissingFields = append(result.MissingFields, "priceCurrency")
	} else if _, ok := iso4217[strings.ToUpper(o.PriceCurrency)]; !ok {
		result.InvalidFields = append(result.InvalidFields, "priceCurrency")
	}

	if o.Availability != "" {
		if _, ok := availabilityStates[o.Availability]; !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unrecognised availability %q", o.Availability))
		}
	} else {
		result.Warnings = append(result.Warnings, "missing recommended field: availability")
	}

	return finalize(&result)
}

// ValidateOrganization requires name and warns on missing identity fields.
func ValidateOrganization(raw map[string]any) types.ValidationResult {
	if raw == nil {
		return notFound()
	}
	result := notFound()
	result.Found = true
	result.Schema = raw

	o := DecodeOrganization(raw)

	if o.Name == "" {
		result.MissingFields = append(result.MissingFields, "name")
	}
	if o.URL == "" {
		result.Warnings = append(result.Warnings, "missing recommended field: url")
	}
	if o.Logo == "" {
		result.Warnings = append(result.Warnings, "missing recommended field: logo")
	}
	if o.Contact == "" {
		result.Warnings = append(result.Warnings, "missing recommended field: contactPoint")
	}
	if o.Address == "" {
		result.Warnings = append(result.Warnings, "missing recommended field: address")
	}
	if len(o.SameAs) == 0 {
		result.Warnings = append(result.Warnings, "missing recommended field: sameAs")
	}

	return finalize(&result)
}

// ValidateReturnPolicy never records hard misses: the rubric has no single
// required field for MerchantReturnPolicy, so a found schema is always
// valid and completeness gaps surface as warnings only.
func ValidateReturnPolicy(raw map[string]any) types.ValidationResult {
	if raw == nil {
		return notFound()
	}
	result := notFound()
	result.Found = true
	result.Schema = raw

	p := DecodeReturnPolicy(raw)

	if p.ReturnDays == "" {
		result.Warnings = append(result.Warnings, "missing return window (merchantReturnDays)")
	}
	if p.ReturnMethod == "" {
		result.Warnings = append(result.Warnings, "missing returnMethod")
	}
	if p.ReturnFees == "" {
		result.Warnings = append(result.Warnings, "missing returnFees")
	}
	if p.ApplicableCountry == "" {
		result.Warnings = append(result.Warnings, "missing applicableCountry")
	}

	return finalize(&result)
}

// ValidateWebSite reports presence plus the hasSearchAction derived flag.
func ValidateWebSite(raw map[string]any) types.ValidationResult {
	if raw == nil {
		return notFound()
	}
	result := notFound()
	result.Found = true
	result.Schema = raw

	w := DecodeWebSite(raw)
	if w.Name == "" {
		result.Warnings = append(result.Warnings, "missing recommended field: name")
	}
	if !w.HasSearchAction {
		result.Warnings = append(result.Warnings, "no SearchAction (sitelinks search box)")
	}

	return finalize(&result)
}

// ValidateFAQPage reports presence plus the question count.
func ValidateFAQPage(raw map[string]any) types.ValidationResult {
	if raw == nil {
		return notFound()
	}
	result := notFound()
	result.Found = true
	result.Schema = raw

	f := DecodeFAQPage(raw)
	if f.QuestionCount == 0 {
		result.Warnings = append(result.Warnings, "FAQPage has no Question entities")
	}

	return finalize(&result)
}
