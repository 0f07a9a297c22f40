package schema

import (
	"strconv"
	"strings"
)

// The decoders below turn raw JSON-LD "bag of fields" objects into typed
// records with named optional fields. They are deliberately permissive:
// missing or extra keys are fine, and scalar-or-array fields collapse to
// their first usable value. Validators run against the typed form.

// Product is the decoded schema.org Product entity.
type Product struct {
	Name        string
	Description string
	Image       string
	Brand       string
	SKU         string
	Gtin        string
	GtinField   string // which identifier field supplied Gtin
	HasOffers   bool
	Offers      map[string]any
	Raw         map[string]any
}

// gtinFields is the GTIN-family identifier lookup order.
var gtinFields = []string{"gtin", "gtin13", "gtin14", "gtin12", "gtin8", "sku", "mpn", "isbn"}

// DecodeProduct decodes a raw Product object; a nil input yields a zero value.
func DecodeProduct(raw map[string]any) Product {
	p := Product{Raw: raw}
	if raw == nil {
		return p
	}
	p.Name = stringField(raw, "name")
	p.Description = stringField(raw, "description")
	p.Image = imageField(raw["image"])
	p.Brand = brandField(raw["brand"])
	p.SKU = stringField(raw, "sku")
	for _, field := range gtinFields {
		if v := stringField(raw, field); v != "" {
			p.Gtin = v
			p.GtinField = field
			break
		}
	}
	if offers, ok := offerFromProduct(raw); ok {
		p.HasOffers = true
		p.Offers = offers
	}
	return p
}

// Offer is the decoded schema.org Offer / AggregateOffer entity.
type Offer struct {
	Price           string
	PriceField      string // price|lowPrice|highPrice
	PriceCurrency   string
	Availability    string
	ItemCondition   string
	ShippingDetails map[string]any
	ReturnPolicy    map[string]any
	Raw             map[string]any
}

// DecodeOffer decodes a raw Offer object.
func DecodeOffer(raw map[string]any) Offer {
	o := Offer{Raw: raw}
	if raw == nil {
		return o
	}
	for _, field := range []string{"price", "lowPrice", "highPrice"} {
		if v := numericString(raw[field]); v != "" {
			o.Price = v
			o.PriceField = field
			break
		}
	}
	o.PriceCurrency = stringField(raw, "priceCurrency")
	o.Availability = stripSchemaPrefix(stringField(raw, "availability"))
	o.ItemCondition = stripSchemaPrefix(stringField(raw, "itemCondition"))
	if details, ok := raw["shippingDetails"].(map[string]any); ok {
		o.ShippingDetails = details
	}
	if policy, ok := raw["hasMerchantReturnPolicy"].(map[string]any); ok {
		o.ReturnPolicy = policy
	}
	return o
}

// Organization is the decoded organization-like entity.
type Organization struct {
	Name    string
	URL     string
	Logo    string
	Contact string
	Address string
	SameAs  []string
	Raw     map[string]any
}

// DecodeOrganization decodes a raw Organization object.
func DecodeOrganization(raw map[string]any) Organization {
	o := Organization{Raw: raw}
	if raw == nil {
		return o
	}
	o.Name = stringField(raw, "name")
	o.URL = stringField(raw, "url")
	o.Logo = imageField(raw["logo"])
	o.Contact = contactField(raw)
	o.Address = addressField(raw["address"])
	if list, ok := raw["sameAs"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				o.SameAs = append(o.SameAs, s)
			}
		}
	} else if s := stringField(raw, "sameAs"); s != "" {
		o.SameAs = []string{s}
	}
	return o
}

// ReturnPolicy is the decoded MerchantReturnPolicy entity.
type ReturnPolicy struct {
	ReturnDays        string
	ReturnMethod      string
	ReturnFees        string
	ApplicableCountry string
	Raw               map[string]any
}

// DecodeReturnPolicy decodes a raw MerchantReturnPolicy object.
func DecodeReturnPolicy(raw map[string]any) ReturnPolicy {
	p := ReturnPolicy{Raw: raw}
	if raw == nil {
		return p
	}
	p.ReturnDays = numericString(raw["merchantReturnDays"])
	p.ReturnMethod = stripSchemaPrefix(stringField(raw, "returnMethod"))
	p.ReturnFees = stripSchemaPrefix(stringField(raw, "returnFees"))
	p.ApplicableCountry = countryField(raw["applicableCountry"])
	return p
}

// WebSite is the decoded WebSite entity.
type WebSite struct {
	Name            string
	URL             string
	HasSearchAction bool
	Raw             map[string]any
}

// DecodeWebSite decodes a raw WebSite object.
func DecodeWebSite(raw map[string]any) WebSite {
	w := WebSite{Raw: raw}
	if raw == nil {
		return w
	}
	w.Name = stringField(raw, "name")
	w.URL = stringField(raw, "url")
	switch action := raw["potentialAction"].(type) {
	case map[string]any:
		w.HasSearchAction = NormalizeType(action["@type"]) == "SearchAction"
	case []any:
		for _, item := range action {
			if m, ok := item.(map[string]any); ok && NormalizeType(m["@type"]) == "SearchAction" {
				w.HasSearchAction = true
				break
			}
		}
	}
	return w
}

// FAQPage is the decoded FAQPage entity.
type FAQPage struct {
	QuestionCount int
	Raw           map[string]any
}

// DecodeFAQPage decodes a raw FAQPage object.
func DecodeFAQPage(raw map[string]any) FAQPage {
	f := FAQPage{Raw: raw}
	if raw == nil {
		return f
	}
	if list, ok := raw["mainEntity"].([]any); ok {
		for _, item := range list {
			if m, ok := item.(map[string]any); ok && NormalizeType(m["@type"]) == "Question" {
				f.QuestionCount++
			}
		}
	} else if m, ok := raw["mainEntity"].(map[string]any); ok {
		if NormalizeType(m["@type"]) == "Question" {
			f.QuestionCount = 1
		}
	}
	return f
}

func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// numericString accepts JSON numbers or numeric strings.
func numericString(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// imageField accepts a URL string, an ImageObject, or an array of either.
func imageField(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		return stringField(v, "url")
	case []any:
		for _, item := range v {
			if s := imageField(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func brandField(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		return stringField(v, "name")
	}
	return ""
}

func contactField(raw map[string]any) string {
	if v := stringField(raw, "telephone"); v != "" {
		return v
	}
	if v := stringField(raw, "email"); v != "" {
		return v
	}
	if point, ok := raw["contactPoint"].(map[string]any); ok {
		if v := stringField(point, "telephone"); v != "" {
			return v
		}
		return stringField(point, "email")
	}
	return ""
}

func addressField(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		parts := make([]string, 0, 3)
		for _, key := range []string{"streetAddress", "addressLocality", "addressCountry"} {
			if s := stringField(v, key); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func countryField(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		return stringField(v, "name")
	case []any:
		for _, item := range v {
			if s := countryField(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func stripSchemaPrefix(v string) string {
	return schemaOrgPrefix.ReplaceAllString(v, "")
}
