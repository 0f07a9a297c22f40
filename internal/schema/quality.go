package schema

import (
	"net/url"
	"regexp"
	"strings"

	"agentaudit/pkg/types"
)

// QualityLevel grades the structured data found on a page.
type QualityLevel string

const (
	QualityFull    QualityLevel = "full"
	QualityPartial QualityLevel = "partial"
	QualityNone    QualityLevel = "none"
)

// Quality summarises the commerce-relevant structured data on a page.
type Quality struct {
	Level             QualityLevel
	HasProduct        bool
	HasOffer          bool
	HasGtin           bool
	HasAggregateOffer bool
	HasItemList       bool
	ProductCount      int
}

// AssessQuality grades extracted schemas. "full" requires Product + Offer +
// a GTIN-family identifier; Product + Offer without an identifier, or any
// one of Product / AggregateOffer / ItemList alone, is "partial".
func AssessQuality(schemas []types.ExtractedSchema) Quality {
	q := Quality{Level: QualityNone}

	product, hasProduct := FindProduct(schemas)
	q.HasProduct = hasProduct
	if hasProduct {
		decoded := DecodeProduct(product)
		q.HasGtin = decoded.Gtin != ""
	}
	_, q.HasOffer = FindOffer(schemas)
	_, q.HasAggregateOffer = FirstOfType(schemas, "AggregateOffer")
	_, q.HasItemList = FirstOfType(schemas, "ItemList")
	for _, s := range schemas {
		if s.Type == "Product" {
			q.ProductCount++
		}
	}

	switch {
	case q.HasProduct && q.HasOffer && q.HasGtin:
		q.Level = QualityFull
	case q.HasProduct && q.HasOffer:
		q.Level = QualityPartial
	case q.HasProduct || q.HasAggregateOffer || q.HasItemList:
		q.Level = QualityPartial
	}
	return q
}

// Confidence grades how certain the page-type classification is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// PageType classifies the submitted page.
type PageType struct {
	IsProduct  bool
	IsCategory bool
	IsHomepage bool
	Confidence Confidence
}

var (
	productURLPattern  = regexp.MustCompile(`(?i)/(p|product|products|item|dp)/[^/]+`)
	categoryURLPattern = regexp.MustCompile(`(?i)/(c|category|categories|collections?|shop|catalog)(/|$)`)
	addToCartPattern   = regexp.MustCompile(`(?i)add[\s-]*to[\s-]*cart`)
	productGridPattern = regexp.MustCompile(`(?i)class="[^"]*(product-(grid|list|card)|collection-grid|category-products)[^"]*"`)
)

// DetectPageType combines URL patterns, schema signals, and content signals
// on a fixed priority ladder: a root path is a homepage outright;
// schema+content agreement is high confidence; a single weak signal is
// medium; nothing is low.
func DetectPageType(pageURL *url.URL, html string) PageType {
	if pageURL != nil {
		path := strings.TrimSuffix(pageURL.Path, "/")
		if path == "" {
			return PageType{IsHomepage: true, Confidence: ConfidenceHigh}
		}
	}

	var rawPath string
	if pageURL != nil {
		rawPath = pageURL.Path
	}
	urlSaysProduct := productURLPattern.MatchString(rawPath)
	urlSaysCategory := !urlSaysProduct && categoryURLPattern.MatchString(rawPath)

	schemas := ExtractJSONLD(html)
	_, schemaSaysProduct := FindProduct(schemas)
	_, hasCollectionPage := FirstOfType(schemas, "CollectionPage")
	_, hasItemList := FirstOfType(schemas, "ItemList")
	schemaSaysCategory := hasCollectionPage || hasItemList

	contentSaysProduct := addToCartPattern.MatchString(html)
	contentSaysCategory := productGridPattern.MatchString(html)

	switch {
	case schemaSaysProduct && (contentSaysProduct || urlSaysProduct):
		return PageType{IsProduct: true, Confidence: ConfidenceHigh}
	case schemaSaysCategory && (contentSaysCategory || urlSaysCategory):
		return PageType{IsCategory: true, Confidence: ConfidenceHigh}
	case schemaSaysProduct || urlSaysProduct:
		return PageType{IsProduct: true, Confidence: ConfidenceMedium}
	case schemaSaysCategory || urlSaysCategory || contentSaysCategory:
		return PageType{IsCategory: true, Confidence: ConfidenceMedium}
	case contentSaysProduct:
		return PageType{IsProduct: true, Confidence: ConfidenceMedium}
	default:
		return PageType{Confidence: ConfidenceLow}
	}
}
