package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateScore(t *testing.T) {
	tests := []struct {
		human, ai, want int
	}{
		{80, 60, 70},
		{71, 60, 66}, // 65.5 rounds up
		{0, 1, 1},
		{0, 0, 0},
		{100, 100, 100},
		{100, 0, 50},
		{99, 100, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AggregateScore(tt.human, tt.ai), "AggregateScore(%d, %d)", tt.human, tt.ai)
	}
}

func TestAggregateScoreProperties(t *testing.T) {
	for x := MinScore; x <= MaxScore; x++ {
		assert.Equal(t, x, AggregateScore(x, x))
		for y := MinScore; y <= MaxScore; y += 7 {
			assert.Equal(t, AggregateScore(x, y), AggregateScore(y, x))
		}
	}
}

func TestBandOf(t *testing.T) {
	assert.Equal(t, BandExcellent, BandOf(90))
	assert.Equal(t, BandGood, BandOf(89))
	assert.Equal(t, BandGood, BandOf(70))
	assert.Equal(t, BandNeedsImprovement, BandOf(69))
}
