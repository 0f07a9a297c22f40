package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"agentaudit/pkg/types"
)

func TestScoreSumsCategories(t *testing.T) {
	checks := []types.Check{
		{ID: "D1", Category: types.CategoryDiscovery, Status: types.StatusPass, Score: 20, MaxScore: 20},
		{ID: "D2", Category: types.CategoryDiscovery, Status: types.StatusFail, Score: 0, MaxScore: 10},
		{ID: "T1", Category: types.CategoryTrust, Status: types.StatusPartial, Score: 6, MaxScore: 10},
	}
	s := Score(checks)

	assert.Equal(t, 26, s.Total)
	assert.Equal(t, 40, s.Max)
	assert.Equal(t, 65, s.Normalized)
	assert.Equal(t, types.CategoryScore{Score: 20, MaxScore: 30}, s.Categories[types.CategoryDiscovery])
	assert.Equal(t, types.CategoryScore{Score: 6, MaxScore: 10}, s.Categories[types.CategoryTrust])
}

func TestScoreExcludesSkippedAndZeroMax(t *testing.T) {
	checks := []types.Check{
		{ID: "D1", Category: types.CategoryDiscovery, Status: types.StatusPass, Score: 20, MaxScore: 20},
		// Skipped performance check: contributes to neither side.
		{ID: "PF1", Category: types.CategoryPerformance, Status: types.StatusSkipped, Score: 0, MaxScore: 0},
		// Legacy informational check with a score but zero max.
		{ID: "P1", Category: types.CategoryDistribution, Status: types.StatusPass, Score: 5, MaxScore: 0},
	}
	s := Score(checks)

	assert.Equal(t, 20, s.Total)
	assert.Equal(t, 20, s.Max)
	assert.Equal(t, 100, s.Normalized)
	assert.Equal(t, types.GradeAgentNative, s.Grade)
}

func TestScoreEmptyIsZero(t *testing.T) {
	s := Score(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.Max)
	assert.Zero(t, s.Normalized)
	assert.Equal(t, types.GradeInvisible, s.Grade)
}

func TestGradeThresholds(t *testing.T) {
	assert.Equal(t, types.GradeAgentNative, GradeFor(100))
	assert.Equal(t, types.GradeAgentNative, GradeFor(85))
	assert.Equal(t, types.GradeOptimized, GradeFor(84))
	assert.Equal(t, types.GradeOptimized, GradeFor(70))
	assert.Equal(t, types.GradeNeedsWork, GradeFor(69))
	assert.Equal(t, types.GradeNeedsWork, GradeFor(50))
	assert.Equal(t, types.GradeInvisible, GradeFor(49))
	assert.Equal(t, types.GradeInvisible, GradeFor(0))
}

func TestGradeMonotonicity(t *testing.T) {
	rank := map[types.Grade]int{
		types.GradeInvisible:   0,
		types.GradeNeedsWork:   1,
		types.GradeOptimized:   2,
		types.GradeAgentNative: 3,
	}
	prev := GradeFor(0)
	for n := 1; n <= 100; n++ {
		grade := GradeFor(n)
		assert.GreaterOrEqual(t, rank[grade], rank[prev], "normalized %d", n)
		prev = grade
	}
}

func TestRecommendOrderingAndOmissions(t *testing.T) {
	checks := []types.Check{
		{ID: "D5", Status: types.StatusFail},                                 // low priority
		{ID: "D1", Status: types.StatusFail},                                 // critical
		{ID: "T1", Status: types.StatusPartial},                              // medium
		{ID: "D2", Status: types.StatusPass},                                 // passing, omitted
		{ID: "PF1", Status: types.StatusSkipped},                             // skipped, omitted
		{ID: "P1", Status: types.StatusFail},                                 // no template, omitted
		{ID: "X2", Status: types.StatusPartial},                              // high
	}
	recs := Recommend(checks)

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.CheckID
	}
	assert.Equal(t, []string{"D1", "X2", "T1", "D5"}, ids)
}

func TestRecommendAppendsFieldDetail(t *testing.T) {
	checks := []types.Check{
		{
			ID:     "D3",
			Status: types.StatusPartial,
			Data: map[string]any{
				"product": types.ValidationResult{
					Found:         true,
					MissingFields: []string{"description", "image"},
					InvalidFields: []string{"name"},
				},
			},
		},
	}
	recs := Recommend(checks)

	assert.Len(t, recs, 1)
	assert.Contains(t, recs[0].Description, "missing description, image")
	assert.Contains(t, recs[0].Description, "invalid name")
}
