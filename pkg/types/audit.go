package types

import (
	"time"
)

// CheckStatus is the outcome of a single scored check.
type CheckStatus string

const (
	StatusPass    CheckStatus = "pass"
	StatusPartial CheckStatus = "partial"
	StatusFail    CheckStatus = "fail"
	StatusSkipped CheckStatus = "skipped"
)

// Category groups checks for reporting. Performance and distribution are
// legacy v1 categories kept for backward-compatible display.
type Category string

const (
	CategoryDiscovery    Category = "discovery"
	CategoryTrust        Category = "trust"
	CategoryTransaction  Category = "transaction"
	CategoryPerformance  Category = "performance"
	CategoryDistribution Category = "distribution"
)

// Check is one scored unit of evaluation.
//
// A MaxScore of 0 means the check is excluded from every aggregate: it
// contributes to neither the numerator nor the denominator of the
// normalized score.
type Check struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Category Category       `json:"category"`
	Status   CheckStatus    `json:"status"`
	Score    int            `json:"score"`
	MaxScore int            `json:"maxScore"`
	Details  string         `json:"details"`
	Data     map[string]any `json:"data,omitempty"`
}

// ExtractedSchema is one normalized structured-data record pulled out of a
// page. Lifecycle is transient: schemas are folded into check data or
// validation results, never persisted on their own.
type ExtractedSchema struct {
	Type   string         `json:"type"`
	Data   map[string]any `json:"data"`
	Source string         `json:"source"`
}

// ValidationResult is the verdict of a per-entity schema validator.
// Valid is only true when MissingFields and InvalidFields are both empty;
// Found=false implies Valid=false. Warnings never block validity.
type ValidationResult struct {
	Found         bool           `json:"found"`
	Valid         bool           `json:"valid"`
	Schema        map[string]any `json:"schema,omitempty"`
	MissingFields []string       `json:"missingFields"`
	InvalidFields []string       `json:"invalidFields"`
	Warnings      []string       `json:"warnings"`
}

// FeedSource identifies where a feed candidate was discovered.
type FeedSource string

const (
	FeedSourceNative     FeedSource = "native"
	FeedSourceRobots     FeedSource = "robots"
	FeedSourceSitemap    FeedSource = "sitemap"
	FeedSourceHTML       FeedSource = "html"
	FeedSourceCommonPath FeedSource = "common-path"
	FeedSourceGuessed    FeedSource = "guessed"
)

// FeedInfo describes a discovered product-feed candidate.
type FeedInfo struct {
	URL               string     `json:"url"`
	Type              string     `json:"type"` // json|xml|csv|unknown
	Source            FeedSource `json:"source"`
	Accessible        bool       `json:"accessible"`
	ProductCount      int        `json:"productCount"`
	HasRequiredFields bool       `json:"hasRequiredFields"`
	MissingFields     []string   `json:"missingFields,omitempty"`
	IsEmpty           bool       `json:"isEmpty"`
	GtinCoverage      float64    `json:"gtinCoverage"`
}

// ReadinessState is the tri-state verdict for one protocol signal.
type ReadinessState string

const (
	Ready    ReadinessState = "ready"
	Partial  ReadinessState = "partial"
	NotReady ReadinessState = "not_ready"
)

// ProtocolReadiness assesses agent-commerce protocol posture across three
// discovery-layer and three commerce-layer signals. Computed fresh per
// analysis and never mutated after construction.
type ProtocolReadiness struct {
	GoogleShopping ReadinessState `json:"googleShopping"`
	KlarnaApp      ReadinessState `json:"klarnaApp"`
	AnswerEngines  ReadinessState `json:"answerEngines"`
	UCP            ReadinessState `json:"ucp"`
	ACP            ReadinessState `json:"acp"`
	MCP            ReadinessState `json:"mcp"`
	PaymentRails   []string       `json:"paymentRails"`
	ReadyCount     int            `json:"readyCount"`
	PartialCount   int            `json:"partialCount"`
}

// JobStatus is the lifecycle stage of an audit job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobScraping  JobStatus = "scraping"
	JobAnalyzing JobStatus = "analyzing"
	JobScoring   JobStatus = "scoring"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Progress mirrors the step counter persisted alongside the job status.
type Progress struct {
	Step         int    `json:"step"`
	TotalSteps   int    `json:"totalSteps"`
	CurrentCheck string `json:"currentCheck"`
}

// JobError is the structured failure recorded on a failed job. Retryable is
// informational only; the audit core does not retry.
type JobError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Job is the persisted unit of work driving one audit.
type Job struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Status     JobStatus  `json:"status"`
	Progress   Progress   `json:"progress"`
	AnalysisID string     `json:"analysisId,omitempty"`
	Error      *JobError  `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// CategoryScore is one score/max pair in the analysis summary.
type CategoryScore struct {
	Score    int `json:"score"`
	MaxScore int `json:"maxScore"`
}

// Grade buckets the normalized 0-100 score.
type Grade string

const (
	GradeAgentNative Grade = "Agent-Native"
	GradeOptimized   Grade = "Optimized"
	GradeNeedsWork   Grade = "Needs Work"
	GradeInvisible   Grade = "Invisible"
)

// Priority orders recommendations; lower rank sorts first.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the sort rank for a priority. Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Recommendation is one prioritized remediation item.
type Recommendation struct {
	CheckID     string   `json:"checkId"`
	Priority    Priority `json:"priority"`
	Effort      string   `json:"effort"` // low|medium|high
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Fix         string   `json:"fix"`
}

// ScrapeMeta records how the page content was acquired.
type ScrapeMeta struct {
	FinalURL     string        `json:"finalUrl"`
	StatusCode   int           `json:"statusCode"`
	ContentType  string        `json:"contentType"`
	UsedRenderer bool          `json:"usedRenderer"`
	RenderReason string        `json:"renderReason,omitempty"`
	FetchedAt    time.Time     `json:"fetchedAt"`
	Latency      time.Duration `json:"latency"`
}

// Analysis is the persisted audit result, created exactly once at job
// completion.
type Analysis struct {
	ID              string                     `json:"id"`
	URL             string                     `json:"url"`
	Domain          string                     `json:"domain"`
	Categories      map[Category]CategoryScore `json:"categories"`
	Checks          []Check                    `json:"checks"`
	Recommendations []Recommendation           `json:"recommendations"`
	TotalScore      int                        `json:"totalScore"`
	MaxScore        int                        `json:"maxScore"`
	Normalized      int                        `json:"normalizedScore"`
	Grade           Grade                      `json:"grade"`
	Readiness       *ProtocolReadiness         `json:"protocolReadiness,omitempty"`
	Scrape          ScrapeMeta                 `json:"scrape"`
	CreatedAt       time.Time                  `json:"createdAt"`
}
