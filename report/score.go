package report

import "math"

// AggregateScore combines the two headline scores into the overall score used
// for storage and sorting: (human+ai)/2 rounded half up.
func AggregateScore(human, ai int) int {
	return int(math.Floor(float64(human+ai)/2 + 0.5))
}

// Overall is AggregateScore over the report's own scores.
func (r *AnalysisReport) Overall() int {
	return AggregateScore(r.Human.ClarityScore, r.AI.AISEOScore)
}

// Band buckets an overall score the way the history views group them.
type Band string

const (
	BandExcellent        Band = "excellent"
	BandGood             Band = "good"
	BandNeedsImprovement Band = "needsImprovement"
)

func BandOf(score int) Band {
	switch {
	case score >= 90:
		return BandExcellent
	case score >= 70:
		return BandGood
	default:
		return BandNeedsImprovement
	}
}
