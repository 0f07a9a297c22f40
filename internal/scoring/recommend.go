package scoring

import (
	"sort"
	"strings"

	"agentaudit/pkg/types"
)

type template struct {
	priority    types.Priority
	effort      string
	title       string
	description string
	fix         string
}

// templates keys remediation advice by check ID. Checks without an entry
// produce no recommendation.
var templates = map[string]template{
	"D1": {
		priority:    types.PriorityCritical,
		effort:      "low",
		title:       "Unblock AI crawlers in robots.txt",
		description: "One or more AI shopping agents are blocked from crawling the site, making products invisible to them.",
		fix:         "Add explicit Allow rules for GPTBot, ClaudeBot, PerplexityBot and the other AI crawlers, or remove the blanket Disallow.",
	},
	"D2": {
		priority:    types.PriorityHigh,
		effort:      "low",
		title:       "Publish an XML sitemap",
		description: "No sitemap was found at the standard locations, so crawlers cannot enumerate the catalog efficiently.",
		fix:         "Generate a sitemap.xml listing product and category URLs and reference it from robots.txt.",
	},
	"D3": {
		priority:    types.PriorityCritical,
		effort:      "medium",
		title:       "Add Product JSON-LD structured data",
		description: "Product pages lack complete Product and Offer structured data, so agents cannot read price and availability.",
		fix:         "Embed schema.org Product JSON-LD with name, description, image, a GTIN-family identifier and a complete Offer.",
	},
	"D4": {
		priority:    types.PriorityHigh,
		effort:      "medium",
		title:       "Expose a machine-readable product feed",
		description: "No accessible product feed was found, which blocks listing on shopping surfaces that ingest feeds.",
		fix:         "Publish a product feed (JSON or Google Merchant XML) with id, title, price and link for every product.",
	},
	"D5": {
		priority:    types.PriorityLow,
		effort:      "low",
		title:       "Publish an llms.txt file",
		description: "An llms.txt file tells language-model agents where the important content lives.",
		fix:         "Serve a plain-text llms.txt at the site root summarizing key pages and policies.",
	},
	"T1": {
		priority:    types.PriorityMedium,
		effort:      "low",
		title:       "Complete the Organization schema",
		description: "Merchant identity data is missing or incomplete, which weakens trust signals for agents.",
		fix:         "Add Organization JSON-LD with name, url, logo, contact point and sameAs links to official profiles.",
	},
	"T2": {
		priority:    types.PriorityMedium,
		effort:      "low",
		title:       "Publish a structured return policy",
		description: "Return terms are not machine-readable, so agents cannot surface them during purchase decisions.",
		fix:         "Add MerchantReturnPolicy JSON-LD with return window, method, fees and applicable country.",
	},
	"T3": {
		priority:    types.PriorityLow,
		effort:      "low",
		title:       "Strengthen trust-related structured data",
		description: "Supporting trust entities such as a WebSite search action or FAQ content are thin or missing.",
		fix:         "Add WebSite JSON-LD with a SearchAction and mark up FAQ content with FAQPage schema.",
	},
	"X1": {
		priority:    types.PriorityCritical,
		effort:      "medium",
		title:       "Serve the site over HTTPS",
		description: "Agents will not transact over plain HTTP.",
		fix:         "Install a TLS certificate and redirect all HTTP traffic to HTTPS.",
	},
	"X2": {
		priority:    types.PriorityHigh,
		effort:      "medium",
		title:       "Complete Offer data for agent checkout",
		description: "Offer structured data is missing fields agents need to complete a purchase autonomously.",
		fix:         "Add price, priceCurrency, availability, shippingDetails and a return policy with applicableCountry to every Offer.",
	},
	"X3": {
		priority:    types.PriorityMedium,
		effort:      "high",
		title:       "Add agent-friendly payment options",
		description: "Few or no recognizable payment rails were detected, limiting how agents can pay.",
		fix:         "Integrate widely-supported rails such as Stripe, PayPal, Apple Pay or Google Pay.",
	},
	"PF1": {
		priority:    types.PriorityMedium,
		effort:      "high",
		title:       "Improve page load performance",
		description: "Slow pages cost crawl budget and degrade agent interactions.",
		fix:         "Reduce render-blocking resources, compress images and serve static assets from a CDN.",
	},
}

// Recommend builds remediation items for every non-passing check with a
// known template, sorted by priority. Skipped checks and unknown IDs are
// silently omitted.
func Recommend(checks []types.Check) []types.Recommendation {
	var recs []types.Recommendation
	for _, check := range checks {
		if check.Status == types.StatusPass || check.Status == types.StatusSkipped {
			continue
		}
		tpl, ok := templates[check.ID]
		if !ok {
			continue
		}
		recs = append(recs, types.Recommendation{
			CheckID:     check.ID,
			Priority:    tpl.priority,
			Effort:      tpl.effort,
			Title:       tpl.title,
			Description: withFieldDetail(tpl.description, check),
			Fix:         tpl.fix,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})
	return recs
}

// withFieldDetail appends validator field lists carried in the check data
// so the recommendation names the exact gaps.
func withFieldDetail(description string, check types.Check) string {
	var details []string
	for _, key := range []string{"product", "offer", "organization", "returnPolicy"} {
		result, ok := check.Data[key].(types.ValidationResult)
		if !ok {
			continue
		}
		if len(result.MissingFields) > 0 {
			details = append(details, "missing "+strings.Join(result.MissingFields, ", "))
		}
		if len(result.InvalidFields) > 0 {
			details = append(details, "invalid "+strings.Join(result.InvalidFields, ", "))
		}
	}
	if len(details) == 0 {
		return description
	}
	return description + " (" + strings.Join(details, "; ") + ")"
}
