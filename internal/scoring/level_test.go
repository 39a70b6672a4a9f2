package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	defaults := DefaultThresholds()

	tests := []struct {
		score int
		want  Level
	}{
		{-5, LevelLow},
		{0, LevelLow},
		{29, LevelLow},
		{30, LevelMedium},
		{59, LevelMedium},
		{60, LevelHigh},
		{250, LevelHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score, defaults), "score %d", tt.score)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	for _, th := range []Thresholds{{Medium: 30, High: 60}, {Medium: 15, High: 30}, {Medium: 1, High: 2}, {Medium: 0, High: 100}} {
		assert.Equal(t, LevelHigh, Classify(th.High, th))
		assert.NotEqual(t, LevelHigh, Classify(th.High-1, th))
		assert.Contains(t, []Level{LevelMedium, LevelHigh}, Classify(th.Medium, th))
		assert.Equal(t, LevelLow, Classify(th.Medium-1, th))
	}
}

func TestClassify_Monotonic(t *testing.T) {
	for _, th := range []Thresholds{{Medium: 30, High: 60}, {Medium: 10, High: 10}, {Medium: 0, High: 0}} {
		previous := Classify(-10, th)
		for score := -9; score <= 120; score++ {
			current := Classify(score, th)
			assert.GreaterOrEqual(t, current.Rank(), previous.Rank(), "score %d thresholds %+v", score, th)
			previous = current
		}
	}
}

func TestLevel_RankAndValid(t *testing.T) {
	assert.Less(t, LevelLow.Rank(), LevelMedium.Rank())
	assert.Less(t, LevelMedium.Rank(), LevelHigh.Rank())

	for _, l := range []Level{LevelLow, LevelMedium, LevelHigh} {
		assert.True(t, l.Valid(), l)
	}
	assert.False(t, Level("severe").Valid())
	assert.False(t, Level("").Valid())
}
