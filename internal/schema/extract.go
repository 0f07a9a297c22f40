package schema

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"agentaudit/pkg/types"
)

var schemaOrgPrefix = regexp.MustCompile(`^https?://schema\.org/`)

// ExtractJSONLD scans the document for <script type="application/ld+json">
// blocks and returns every embedded entity in document order. Malformed
// blocks are skipped, never fatal. @graph arrays and top-level arrays are
// expanded into individual entities; duplicate types are not deduped, so
// "first of type" lookups take position 0.
func ExtractJSONLD(html string) []types.ExtractedSchema {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		return nil
	}

	var schemas []types.ExtractedSchema
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return
		}
		schemas = append(schemas, expandEntity(parsed)...)
	})
	return schemas
}

func expandEntity(parsed any) []types.ExtractedSchema {
	switch v := parsed.(type) {
	case []any:
		var out []types.ExtractedSchema
		for _, item := range v {
			out = append(out, expandEntity(item)...)
		}
		return out
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			var out []types.ExtractedSchema
			for _, item := range graph {
				out = append(out, expandEntity(item)...)
			}
			return out
		}
		entityType := NormalizeType(v["@type"])
		if entityType == "" {
			return nil
		}
		return []types.ExtractedSchema{{Type: entityType, Data: v, Source: "json-ld"}}
	default:
		return nil
	}
}

// NormalizeType reduces an @type value to a bare schema.org type name:
// arrays collapse to their first element and http(s)://schema.org/ prefixes
// are stripped.
func NormalizeType(raw any) string {
	switch v := raw.(type) {
	case string:
		return schemaOrgPrefix.ReplaceAllString(strings.TrimSpace(v), "")
	case []any:
		if len(v) == 0 {
			return ""
		}
		return NormalizeType(v[0])
	default:
		return ""
	}
}

// FirstOfType returns the first schema with the given normalized type.
func FirstOfType(schemas []types.ExtractedSchema, name string) (types.ExtractedSchema, bool) {
	for _, s := range schemas {
		if s.Type == name {
			return s, true
		}
	}
	return types.ExtractedSchema{}, false
}

// FindProduct locates a Product entity: direct, nested in mainEntity, or
// nested in offers.itemOffered.
func FindProduct(schemas []types.ExtractedSchema) (map[string]any, bool) {
	if s, ok := FirstOfType(schemas, "Product"); ok {
		return s.Data, true
	}
	for _, s := range schemas {
		if nested, ok := nestedObjectOfType(s.Data["mainEntity"], "Product"); ok {
			return nested, true
		}
	}
	for _, s := range schemas {
		offers, ok := s.Data["offers"].(map[string]any)
		if !ok {
			continue
		}
		if nested, ok := nestedObjectOfType(offers["itemOffered"], "Product"); ok {
			return nested, true
		}
	}
	return nil, false
}

// organizationTypes is the lookup priority for organization-like entities.
var organizationTypes = []string{"Organization", "LocalBusiness", "Store", "OnlineStore", "Corporation"}

// FindOrganization locates the best organization-like entity.
func FindOrganization(schemas []types.ExtractedSchema) (map[string]any, bool) {
	for _, name := range organizationTypes {
		if s, ok := FirstOfType(schemas, name); ok {
			return s.Data, true
		}
	}
	return nil, false
}

// FindOffer prefers the product's own offers over standalone Offer or
// AggregateOffer entities.
func FindOffer(schemas []types.ExtractedSchema) (map[string]any, bool) {
	if product, ok := FindProduct(schemas); ok {
		if offer, ok := offerFromProduct(product); ok {
			return offer, true
		}
	}
	if s, ok := FirstOfType(schemas, "Offer"); ok {
		return s.Data, true
	}
	if s, ok := FirstOfType(schemas, "AggregateOffer"); ok {
		return s.Data, true
	}
	return nil, false
}

func offerFromProduct(product map[string]any) (map[string]any, bool) {
	switch offers := product["offers"].(type) {
	case map[string]any:
		return offers, true
	case []any:
		for _, item := range offers {
			if m, ok := item.(map[string]any); ok {
				return m, true
			}
		}
	}
	return nil, false
}

// FindReturnPolicy locates a MerchantReturnPolicy either standalone or
// linked from the Product or Offer via hasMerchantReturnPolicy.
func FindReturnPolicy(schemas []types.ExtractedSchema) (map[string]any, bool) {
	if s, ok := FirstOfType(schemas, "MerchantReturnPolicy"); ok {
		return s.Data, true
	}
	if product, ok := FindProduct(schemas); ok {
		if policy, ok := product["hasMerchantReturnPolicy"].(map[string]any); ok {
			return policy, true
		}
	}
	if offer, ok := FindOffer(schemas); ok {
		if policy, ok := offer["hasMerchantReturnPolicy"].(map[string]any); ok {
			return policy, true
		}
	}
	return nil, false
}

func nestedObjectOfType(raw any, name string) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	if NormalizeType(obj["@type"]) != name {
		return nil, false
	}
	return obj, true
}
