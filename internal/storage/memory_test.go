package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentaudit/pkg/types"
)

func TestMemoryStoreJobLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	job := &types.Job{ID: "j-1", URL: "https://shop.example.com", Status: types.JobPending}
	require.NoError(t, store.InsertJob(ctx, job))

	got, err := store.GetJob(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, types.JobPending, got.Status)

	// Mutating the returned copy must not leak back into the store.
	got.Status = types.JobFailed
	again, err := store.GetJob(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, types.JobPending, again.Status)

	job.Status = types.JobCompleted
	require.NoError(t, store.UpdateJob(ctx, job))
	updated, err := store.GetJob(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, updated.Status)
}

func TestMemoryStoreMissesReturnErrNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetJob(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetAnalysis(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.UpdateJob(ctx, &types.Job{ID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreLatestAnalysisByDomain(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.InsertAnalysis(ctx, &types.Analysis{
		ID: "old", Domain: "example.com", CreatedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, store.InsertAnalysis(ctx, &types.Analysis{
		ID: "recent", Domain: "example.com", CreatedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, store.InsertAnalysis(ctx, &types.Analysis{
		ID: "other-domain", Domain: "other.com", CreatedAt: now,
	}))

	latest, err := store.LatestAnalysisByDomain(ctx, "example.com", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "recent", latest.ID)

	// Entries older than the window are invisible.
	none, err := store.LatestAnalysisByDomain(ctx, "example.com", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Nil(t, none)

	// An unknown domain is a miss, not an error.
	missing, err := store.LatestAnalysisByDomain(ctx, "unknown.com", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, missing)
}
