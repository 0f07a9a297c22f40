// Package storage persists audit jobs and completed analyses.
package storage

import (
	"context"
	"errors"
	"time"

	"agentaudit/pkg/types"
)

// ErrNotFound is returned when a job or analysis id does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store is the persistence surface used by the API and the analyzer.
// LatestAnalysisByDomain backs the page-speed cache: it returns the most
// recent analysis for the domain created after since, or nil without
// error when none exists.
type Store interface {
	InsertJob(ctx context.Context, job *types.Job) error
	UpdateJob(ctx context.Context, job *types.Job) error
	GetJob(ctx context.Context, id string) (*types.Job, error)

	InsertAnalysis(ctx context.Context, analysis *types.Analysis) error
	GetAnalysis(ctx context.Context, id string) (*types.Analysis, error)
	LatestAnalysisByDomain(ctx context.Context, domain string, since time.Time) (*types.Analysis, error)

	Close() error
}
