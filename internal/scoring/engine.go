// Package scoring aggregates check results into category totals, a
// normalized score, a letter grade and prioritized recommendations.
package scoring

import (
	"math"

	"agentaudit/pkg/types"
)

// Summary is the aggregate view computed from a check list.
type Summary struct {
	Categories map[types.Category]types.CategoryScore
	Total      int
	Max        int
	Normalized int
	Grade      types.Grade
}

// Score sums checks into category and grand totals. Checks with a zero
// maxScore (skipped performance, legacy distribution checks) contribute
// to neither the numerator nor the denominator. Grading always uses the
// normalized score so that exclusions never bias the grade.
func Score(checks []types.Check) Summary {
	s := Summary{Categories: make(map[types.Category]types.CategoryScore)}
	for _, check := range checks {
		cat := s.Categories[check.Category]
		cat.Score += check.Score
		cat.MaxScore += check.MaxScore
		s.Categories[check.Category] = cat

		if check.MaxScore > 0 {
			s.Max += check.MaxScore
			if check.Status != types.StatusSkipped {
				s.Total += check.Score
			}
		}
	}
	if s.Max > 0 {
		s.Normalized = int(math.Round(float64(s.Total) / float64(s.Max) * 100))
	}
	s.Grade = GradeFor(s.Normalized)
	return s
}

// GradeFor buckets a normalized 0-100 score.
func GradeFor(normalized int) types.Grade {
	switch {
	case normalized >= 85:
		return types.GradeAgentNative
	case normalized >= 70:
		return types.GradeOptimized
	case normalized >= 50:
		return types.GradeNeedsWork
	default:
		return types.GradeInvisible
	}
}
