package checks

import (
	"fmt"
	"strings"

	"agentaudit/internal/schema"
	"agentaudit/pkg/types"
)

// HTTPSCheck is a literal scheme check on the analyzed URL string.
func HTTPSCheck(rawURL string) types.Check {
	check := types.Check{
		ID:       IDHTTPS,
		Name:     "HTTPS",
		Category: types.CategoryTransaction,
		MaxScore: MaxHTTPS,
	}
	if strings.HasPrefix(rawURL, "https://") {
		check.Status = types.StatusPass
		check.Score = MaxHTTPS
		check.Details = "Site is served over HTTPS"
	} else {
		check.Status = types.StatusFail
		check.Details = "Site is not served over HTTPS"
	}
	return check
}

// UCPComplianceCheck is the composite offer-completeness check: an Offer
// sub-score (0/2/4/6), a shipping sub-score (0/1/2) and an
// applicableCountry sub-score (0/2). Pass at 80 percent of the total,
// partial above zero.
func UCPComplianceCheck(offerResult types.ValidationResult, offer schema.Offer, policy schema.ReturnPolicy) types.Check {
	check := types.Check{
		ID:       IDUCPCompliance,
		Name:     "UCP compliance",
		Category: types.CategoryTransaction,
		MaxScore: MaxUCPCompliance,
	}

	offerScore := offerSubScore(offerResult)
	shippingScore := shippingSubScore(offer)
	countryScore := 0
	if policy.ApplicableCountry != "" {
		countryScore = 2
	}

	total := offerScore + shippingScore + countryScore
	check.Score = total
	check.Data = map[string]any{
		"offerScore":    offerScore,
		"shippingScore": shippingScore,
		"countryScore":  countryScore,
	}

	switch {
	case total*10 >= MaxUCPCompliance*8:
		check.Status = types.StatusPass
	case total > 0:
		check.Status = types.StatusPartial
	default:
		check.Status = types.StatusFail
	}
	check.Details = fmt.Sprintf("Offer %d/6, shipping %d/2, return country %d/2", offerScore, shippingScore, countryScore)
	return check
}

func offerSubScore(r types.ValidationResult) int {
	switch {
	case !r.Found:
		return 0
	case r.Valid && len(r.Warnings) == 0:
		return 6
	case r.Valid:
		return 4
	default:
		return 2
	}
}

func shippingSubScore(offer schema.Offer) int {
	if offer.ShippingDetails == nil {
		return 0
	}
	_, hasRate := offer.ShippingDetails["shippingRate"]
	_, hasTime := offer.ShippingDetails["deliveryTime"]
	if hasRate || hasTime {
		return 2
	}
	return 1
}

// PaymentMethodsCheck maps the detected payment-rail count to score
// tiers. A recognized platform with no detectable rails still earns a low
// partial because the platform ships its own checkout.
func PaymentMethodsCheck(rails []string, platform PlatformInfo) types.Check {
	check := types.Check{
		ID:       IDPaymentMethods,
		Name:     "Payment methods",
		Category: types.CategoryTransaction,
		MaxScore: MaxPaymentMethods,
		Data:     map[string]any{"rails": rails, "platform": platform.Name},
	}

	switch {
	case len(rails) >= 3:
		check.Status = types.StatusPass
		check.Score = MaxPaymentMethods
		check.Details = "Multiple payment rails detected: " + strings.Join(rails, ", ")
	case len(rails) >= 1:
		check.Status = types.StatusPartial
		check.Score = scaled(MaxPaymentMethods, 0.6)
		check.Details = "Payment rails detected: " + strings.Join(rails, ", ")
	case platform.Detected:
		check.Status = types.StatusPartial
		check.Score = scaled(MaxPaymentMethods, 0.3)
		check.Details = "No payment rails detected but platform checkout is likely (" + platform.Name + ")"
	default:
		check.Status = types.StatusFail
		check.Details = "No payment rails detected"
	}
	return check
}
