// Package analyzer drives one audit job through its five-step pipeline:
// acquire content, extract structured data, run independent checks, run
// distribution checks, score and persist.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"agentaudit/internal/checks"
	"agentaudit/internal/fetcher"
	"agentaudit/internal/schema"
	"agentaudit/internal/scoring"
	"agentaudit/internal/storage"
	"agentaudit/pkg/types"
)

const totalSteps = 5

// Options wires the analyzer's collaborators.
type Options struct {
	Store       storage.Store
	Fetcher     *fetcher.SmartClient
	Discovery   *checks.Discovery
	Protocol    *checks.Protocol
	Performance *checks.Performance
	Logger      *slog.Logger
	// MaxConcurrent bounds the number of jobs running at once when jobs
	// are started in the background. Zero means 4.
	MaxConcurrent int
}

// Analyzer runs audit jobs. One logical worker per job; concurrency
// inside a job is limited to fan-out/fan-in over independent checks.
type Analyzer struct {
	store       storage.Store
	fetch       *fetcher.SmartClient
	discovery   *checks.Discovery
	protocol    *checks.Protocol
	performance *checks.Performance
	logger      *slog.Logger
	slots       chan struct{}
	now         func() time.Time
}

// New builds an analyzer.
func New(opts Options) *Analyzer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	return &Analyzer{
		store:       opts.Store,
		fetch:       opts.Fetcher,
		discovery:   opts.Discovery,
		protocol:    opts.Protocol,
		performance: opts.Performance,
		logger:      opts.Logger,
		slots:       make(chan struct{}, opts.MaxConcurrent),
		now:         time.Now,
	}
}

// Submit creates and persists a pending job for the URL.
func (a *Analyzer) Submit(ctx context.Context, rawURL string) (*types.Job, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid audit url %q", rawURL)
	}
	now := a.now()
	job := &types.Job{
		ID:        uuid.NewString(),
		URL:       parsed.String(),
		Status:    types.JobPending,
		Progress:  types.Progress{TotalSteps: totalSteps},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.InsertJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}
	return job, nil
}

// Start runs the job in the background, bounded by the concurrency
// limit. The job always reaches a terminal state, panics included.
func (a *Analyzer) Start(job *types.Job) {
	go func() {
		a.slots <- struct{}{}
		defer func() { <-a.slots }()
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("audit panicked", "job", job.ID, "panic", r)
				a.fail(context.Background(), job, "internal_error", fmt.Sprintf("internal failure: %v", r))
			}
		}()
		if err := a.Run(context.Background(), job); err != nil {
			a.logger.Error("audit failed", "job", job.ID, "url", job.URL, "error", err)
		}
	}()
}

// Run executes the audit synchronously and drives the job to a terminal
// state. The returned error mirrors what was recorded on the job.
func (a *Analyzer) Run(ctx context.Context, job *types.Job) error {
	start := a.now()

	// Step 1: acquire content. Total fetch failure is the one fatal
	// error; every later check degrades to an empty value instead.
	a.setStage(ctx, job, types.JobScraping, 1, "fetching page content")
	target, err := url.Parse(job.URL)
	if err != nil {
		return a.fail(ctx, job, "invalid_url", err.Error())
	}
	fetched, err := a.fetch.Fetch(ctx, target)
	if err != nil {
		return a.fail(ctx, job, "fetch_failed", fmt.Sprintf("could not fetch %s: %v", job.URL, err))
	}
	page := fetched.Page
	html := page.HTML()
	finalURL := page.FinalURL
	base := baseOf(finalURL)
	domain := registrableDomain(finalURL)

	// Step 2: extract and validate structured data.
	a.setStage(ctx, job, types.JobAnalyzing, 2, "extracting structured data")
	extraction := schema.ExtractSmartly(ctx, html, finalURL, a.productPageFetcher(), a.logger)
	entities := validateEntities(extraction.Schemas)

	// Step 3: independent checks, fanned out together.
	a.setStage(ctx, job, types.JobAnalyzing, 3, "running discovery and performance checks")
	var (
		wg            sync.WaitGroup
		botAccess     types.Check
		sitemap       types.Check
		pageSpeed     types.Check
		orgFromHome   types.ValidationResult
		triedHomepage bool
	)
	wg.Add(3)
	go func() { defer wg.Done(); botAccess = a.discovery.BotAccess(ctx, base) }()
	go func() { defer wg.Done(); sitemap = a.discovery.Sitemap(ctx, base) }()
	go func() { defer wg.Done(); pageSpeed = a.performance.PageSpeed(ctx, finalURL.String(), domain) }()
	wg.Wait()

	// Homepage fallback for merchant identity: product pages often omit
	// the Organization schema carried on the homepage.
	if !entities.Organization.Found && !extraction.PageType.IsHomepage {
		orgFromHome, triedHomepage = a.organizationFromHomepage(ctx, base)
		if triedHomepage && orgFromHome.Found {
			entities.Organization = orgFromHome
		}
	}

	productSchema := checks.ProductSchemaCheck(entities.Product, entities.Offer)
	organization := checks.OrganizationCheck(entities.Organization)
	returnPolicy := checks.ReturnPolicyCheck(entities.ReturnPolicy)
	trustSignals := checks.TrustSignalsCheck(entities.Organization, entities.ReturnPolicy, entities.WebSite, entities.FAQ)
	https := checks.HTTPSCheck(finalURL.String())
	ucpCompliance := checks.UCPComplianceCheck(entities.Offer, entities.DecodedOffer, entities.DecodedPolicy)
	llms := a.discovery.LLMsTxt(ctx, base)

	// Step 4: distribution checks, the slow network-heavy tail.
	a.setStage(ctx, job, types.JobAnalyzing, 4, "running distribution checks")
	platform := checks.FingerprintPlatform(html)
	rails := checks.DetectPaymentRails(html)
	apiPatterns := checks.DetectAPIPatterns(html)
	paymentMethods := checks.PaymentMethodsCheck(rails, platform)

	feedCheck, feeds, primaryFeed := a.discovery.ProductFeed(ctx, base, html, platform.Name)
	ucpManifest, mcpManifest := a.protocol.ProbeManifests(ctx, base, html)

	readiness := checks.AssessReadiness(readinessInputs(extraction, primaryFeed, llms, ucpManifest, mcpManifest, rails, apiPatterns))

	// Step 5: score, persist, complete.
	a.setStage(ctx, job, types.JobScoring, 5, "computing scores")
	allChecks := []types.Check{
		botAccess, sitemap, productSchema, feedCheck, llms,
		organization, returnPolicy, trustSignals,
		https, ucpCompliance, paymentMethods,
		pageSpeed,
		checks.PlatformCheck(platform),
		checks.PaymentRailsCheck(rails),
		checks.APIPatternsCheck(apiPatterns),
		checks.UCPManifestCheck(ucpManifest),
		checks.MCPManifestCheck(mcpManifest),
		checks.FeedReachCheck(readiness),
		checks.AgentProtocolsCheck(readiness),
	}
	summary := scoring.Score(allChecks)

	analysis := &types.Analysis{
		ID:              uuid.NewString(),
		URL:             job.URL,
		Domain:          domain,
		Categories:      summary.Categories,
		Checks:          allChecks,
		Recommendations: scoring.Recommend(allChecks),
		TotalScore:      summary.Total,
		MaxScore:        summary.Max,
		Normalized:      summary.Normalized,
		Grade:           summary.Grade,
		Readiness:       &readiness,
		Scrape: types.ScrapeMeta{
			FinalURL:     finalURL.String(),
			StatusCode:   page.StatusCode,
			ContentType:  page.ContentType,
			UsedRenderer: fetched.UsedRenderer,
			RenderReason: fetched.RenderReason,
			FetchedAt:    page.FetchedAt,
			Latency:      page.Latency,
		},
		CreatedAt: a.now(),
	}
	if err := a.store.InsertAnalysis(ctx, analysis); err != nil {
		return a.fail(ctx, job, "persist_failed", fmt.Sprintf("could not persist analysis: %v", err))
	}

	finished := a.now()
	job.Status = types.JobCompleted
	job.AnalysisID = analysis.ID
	job.UpdatedAt = finished
	job.FinishedAt = &finished
	if err := a.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}

	a.logger.Info("audit completed",
		"job", job.ID,
		"url", job.URL,
		"score", summary.Normalized,
		"grade", summary.Grade,
		"feeds", len(feeds),
		"elapsed", finished.Sub(start).Round(time.Millisecond))
	return nil
}

// productPageFetcher exposes the plain HTTP client to the smart
// extractor for its single optional follow-up fetch.
func (a *Analyzer) productPageFetcher() schema.ProductPageFetcher {
	return func(ctx context.Context, productURL string) (string, error) {
		page, err := a.fetch.Client().FetchURL(ctx, productURL)
		if err != nil {
			return "", err
		}
		return page.HTML(), nil
	}
}

// organizationFromHomepage fetches the homepage once and revalidates the
// Organization schema there.
func (a *Analyzer) organizationFromHomepage(ctx context.Context, base string) (types.ValidationResult, bool) {
	page, err := a.fetch.Client().FetchURL(ctx, base+"/")
	if err != nil {
		a.logger.Debug("homepage fallback fetch failed", "url", base, "error", err)
		return types.ValidationResult{}, false
	}
	schemas := schema.ExtractJSONLD(page.HTML())
	raw, found := schema.FindOrganization(schemas)
	if !found {
		return types.ValidationResult{}, true
	}
	return schema.ValidateOrganization(raw), true
}

// entitySet carries the per-entity validation verdicts plus the decoded
// forms needed by the composite transaction checks.
type entitySet struct {
	Product       types.ValidationResult
	Offer         types.ValidationResult
	Organization  types.ValidationResult
	ReturnPolicy  types.ValidationResult
	WebSite       types.ValidationResult
	FAQ           types.ValidationResult
	DecodedOffer  schema.Offer
	DecodedPolicy schema.ReturnPolicy
}

func validateEntities(schemas []types.ExtractedSchema) entitySet {
	var set entitySet

	if raw, ok := schema.FindProduct(schemas); ok {
		set.Product = schema.ValidateProduct(raw)
	} else {
		set.Product = schema.ValidateProduct(nil)
	}
	if raw, ok := schema.FindOffer(schemas); ok {
		set.Offer = schema.ValidateOffer(raw)
		set.DecodedOffer = schema.DecodeOffer(raw)
	} else {
		set.Offer = schema.ValidateOffer(nil)
	}
	if raw, ok := schema.FindOrganization(schemas); ok {
		set.Organization = schema.ValidateOrganization(raw)
	} else {
		set.Organization = schema.ValidateOrganization(nil)
	}
	if raw, ok := schema.FindReturnPolicy(schemas); ok {
		set.ReturnPolicy = schema.ValidateReturnPolicy(raw)
		set.DecodedPolicy = schema.DecodeReturnPolicy(raw)
	} else {
		set.ReturnPolicy = schema.ValidateReturnPolicy(nil)
	}
	if site, ok := schema.FirstOfType(schemas, "WebSite"); ok {
		set.WebSite = schema.ValidateWebSite(site.Data)
	} else {
		set.WebSite = schema.ValidateWebSite(nil)
	}
	if faq, ok := schema.FirstOfType(schemas, "FAQPage"); ok {
		set.FAQ = schema.ValidateFAQPage(faq.Data)
	} else {
		set.FAQ = schema.ValidateFAQPage(nil)
	}
	return set
}

func readinessInputs(extraction schema.SmartResult, primary *types.FeedInfo, llms types.Check, ucp, mcp checks.ManifestResult, rails, apiPatterns []string) checks.ReadinessInputs {
	in := checks.ReadinessInputs{
		HasProduct:   extraction.Quality.HasProduct,
		HasOffer:     extraction.Quality.HasOffer,
		HasLLMsTxt:   llms.Status == types.StatusPass,
		UCPManifest:  ucp,
		MCPManifest:  mcp,
		PaymentRails: rails,
		APIPatterns:  apiPatterns,
	}
	if primary != nil && primary.Accessible && !primary.IsEmpty {
		in.HasFeed = true
		in.FeedHasRequiredFields = primary.HasRequiredFields
		in.GtinCoverage = primary.GtinCoverage
	}
	return in
}

// setStage persists the status and progress label before the step's work
// begins, so a concurrent poll always sees the current step.
func (a *Analyzer) setStage(ctx context.Context, job *types.Job, status types.JobStatus, step int, label string) {
	job.Status = status
	job.Progress = types.Progress{Step: step, TotalSteps: totalSteps, CurrentCheck: label}
	job.UpdatedAt = a.now()
	if err := a.store.UpdateJob(ctx, job); err != nil {
		a.logger.Warn("progress update failed", "job", job.ID, "step", step, "error", err)
	}
}

func (a *Analyzer) fail(ctx context.Context, job *types.Job, code, message string) error {
	finished := a.now()
	job.Status = types.JobFailed
	job.Error = &types.JobError{Code: code, Message: message, Retryable: true}
	job.UpdatedAt = finished
	job.FinishedAt = &finished
	if err := a.store.UpdateJob(ctx, job); err != nil {
		a.logger.Error("failed to record job failure", "job", job.ID, "error", err)
	}
	return fmt.Errorf("%s: %s", code, message)
}

func baseOf(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

// registrableDomain reduces a host to its registrable domain (eTLD+1) so
// the page-speed cache is shared across subdomains. Hosts the public
// suffix list cannot resolve (IPs, localhost) fall back to the raw host.
func registrableDomain(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return domain
	}
	return host
}
