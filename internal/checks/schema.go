package checks

import (
	"fmt"
	"math"
	"strings"

	"agentaudit/pkg/types"
)

// warningTier maps a validator's warning count to a score fraction. The
// same thresholds apply to every schema-backed check so that a warning
// costs the same everywhere.
func warningTier(warnings int) (types.CheckStatus, float64) {
	switch {
	case warnings == 0:
		return types.StatusPass, 1.0
	case warnings <= 2:
		return types.StatusPartial, 0.6
	default:
		return types.StatusPartial, 0.4
	}
}

func scaled(max int, fraction float64) int {
	return int(math.Round(float64(max) * fraction))
}

// ProductSchemaCheck scores the Product JSON-LD posture of the analyzed
// page. A valid Product with a valid Offer earns full credit; a Product
// without a usable Offer or with validation misses earns a reduced tier.
func ProductSchemaCheck(product, offer types.ValidationResult) types.Check {
	check := types.Check{
		ID:       IDProductSchema,
		Name:     "Product schema",
		Category: types.CategoryDiscovery,
		MaxScore: MaxProductSchema,
		Data: map[string]any{
			"product": product,
			"offer":   offer,
		},
	}

	switch {
	case !product.Found:
		check.Status = types.StatusFail
		check.Details = "No Product JSON-LD found"
	case product.Valid && offer.Found && offer.Valid:
		check.Status = types.StatusPass
		check.Score = MaxProductSchema
		check.Details = "Valid Product schema with a valid Offer"
	case product.Valid:
		check.Status = types.StatusPartial
		check.Score = scaled(MaxProductSchema, 0.6)
		check.Details = "Valid Product schema but the Offer is missing or incomplete"
	default:
		check.Status = types.StatusPartial
		check.Score = scaled(MaxProductSchema, 0.4)
		check.Details = "Product schema found but incomplete: " + fieldSummary(product)
	}
	return check
}

// OrganizationCheck scores merchant identity from the Organization schema
// validation verdict.
func OrganizationCheck(org types.ValidationResult) types.Check {
	check := types.Check{
		ID:       IDOrganization,
		Name:     "Organization schema",
		Category: types.CategoryTrust,
		MaxScore: MaxOrganization,
		Data:     map[string]any{"organization": org},
	}

	switch {
	case !org.Found:
		check.Status = types.StatusFail
		check.Details = "No Organization JSON-LD found"
	case !org.Valid:
		check.Status = types.StatusPartial
		check.Score = scaled(MaxOrganization, 0.4)
		check.Details = "Organization schema found but incomplete: " + fieldSummary(org)
	default:
		status, fraction := warningTier(len(org.Warnings))
		check.Status = status
		check.Score = scaled(MaxOrganization, fraction)
		check.Details = organizationDetails(org)
	}
	return check
}

func organizationDetails(org types.ValidationResult) string {
	if len(org.Warnings) == 0 {
		return "Complete Organization schema"
	}
	return fmt.Sprintf("Organization schema present with %d gaps: %s", len(org.Warnings), strings.Join(org.Warnings, ", "))
}

// ReturnPolicyCheck scores MerchantReturnPolicy completeness. The policy
// validator only warns, so the tier is driven purely by warning count.
func ReturnPolicyCheck(policy types.ValidationResult) types.Check {
	check := types.Check{
		ID:       IDReturnPolicy,
		Name:     "Return policy schema",
		Category: types.CategoryTrust,
		MaxScore: MaxReturnPolicy,
		Data:     map[string]any{"returnPolicy": policy},
	}

	if !policy.Found {
		check.Status = types.StatusFail
		check.Details = "No MerchantReturnPolicy JSON-LD found"
		return check
	}

	status, fraction := warningTier(len(policy.Warnings))
	check.Status = status
	check.Score = scaled(MaxReturnPolicy, fraction)
	if len(policy.Warnings) == 0 {
		check.Details = "Complete return policy schema"
	} else {
		check.Details = fmt.Sprintf("Return policy schema present with %d gaps: %s", len(policy.Warnings), strings.Join(policy.Warnings, ", "))
	}
	return check
}

// TrustSignalsCheck combines the softer trust entities (WebSite search
// action, FAQ content) with the residual warnings of the identity schemas
// into one small combined score.
func TrustSignalsCheck(org, policy, website, faq types.ValidationResult) types.Check {
	check := types.Check{
		ID:       IDTrustSignals,
		Name:     "Trust signals",
		Category: types.CategoryTrust,
		MaxScore: MaxTrustSignals,
		Data: map[string]any{
			"website": website,
			"faq":     faq,
		},
	}

	if !org.Found && !policy.Found && !website.Found && !faq.Found {
		check.Status = types.StatusFail
		check.Details = "No trust-related structured data found"
		return check
	}

	combined := len(org.Warnings) + len(policy.Warnings) + len(website.Warnings)
	status, fraction := warningTier(combined)
	check.Status = status
	check.Score = scaled(MaxTrustSignals, fraction)

	var present []string
	if org.Found {
		present = append(present, "organization")
	}
	if policy.Found {
		present = append(present, "return policy")
	}
	if website.Found {
		present = append(present, "website")
	}
	if faq.Found {
		present = append(present, "faq")
	}
	check.Details = fmt.Sprintf("Trust entities present: %s (%d combined gaps)", strings.Join(present, ", "), combined)
	return check
}

func fieldSummary(r types.ValidationResult) string {
	var parts []string
	if len(r.MissingFields) > 0 {
		parts = append(parts, "missing "+strings.Join(r.MissingFields, ", "))
	}
	if len(r.InvalidFields) > 0 {
		parts = append(parts, "invalid "+strings.Join(r.InvalidFields, ", "))
	}
	if len(parts) == 0 {
		return "no field issues"
	}
	return strings.Join(parts, "; ")
}
