package storage

import (
	"context"
	"sync"
	"time"

	"agentaudit/pkg/types"
)

// MemoryStore is the in-process store used when no database is
// configured. Values are copied on the way in and out so callers never
// share mutable state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	jobs     map[string]types.Job
	analyses map[string]types.Analysis
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:     make(map[string]types.Job),
		analyses: make(map[string]types.Analysis),
	}
}

// InsertJob stores a new job.
func (m *MemoryStore) InsertJob(_ context.Context, job *types.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

// UpdateJob replaces an existing job.
func (m *MemoryStore) UpdateJob(_ context.Context, job *types.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	m.jobs[job.ID] = *job
	return nil
}

// GetJob returns a copy of the job.
func (m *MemoryStore) GetJob(_ context.Context, id string) (*types.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &job, nil
}

// InsertAnalysis stores a completed analysis.
func (m *MemoryStore) InsertAnalysis(_ context.Context, analysis *types.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[analysis.ID] = *analysis
	return nil
}

// GetAnalysis returns a copy of the analysis.
func (m *MemoryStore) GetAnalysis(_ context.Context, id string) (*types.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	analysis, ok := m.analyses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &analysis, nil
}

// LatestAnalysisByDomain scans for the newest analysis of the domain
// created after since.
func (m *MemoryStore) LatestAnalysisByDomain(_ context.Context, domain string, since time.Time) (*types.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *types.Analysis
	for id := range m.analyses {
		analysis := m.analyses[id]
		if analysis.Domain != domain || analysis.CreatedAt.Before(since) {
			continue
		}
		if latest == nil || analysis.CreatedAt.After(latest.CreatedAt) {
			copied := analysis
			latest = &copied
		}
	}
	return latest, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }
