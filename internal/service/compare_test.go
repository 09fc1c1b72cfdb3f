package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercentageChange(t *testing.T) {
	cases := []struct {
		name              string
		previous, current float64
		want              float64
	}{
		{"growth from zero is reported as +100%", 0, 5, 1},
		{"zero to zero is flat", 0, 0, 0},
		{"halving is -50%", 10, 5, -0.5},
		{"doubling is +100%", 10, 20, 1},
		{"fractional delta", 8, 10, 0.25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, PercentageChange(tc.previous, tc.current), 1e-9)
		})
	}
}

func TestPreviousWindow(t *testing.T) {
	start := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	prev := PreviousWindow(DateRange{Start: start, End: end})

	t.Run("ends one day before the current start", func(t *testing.T) {
		assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), prev.End)
	})

	t.Run("has identical duration", func(t *testing.T) {
		assert.Equal(t, end.Sub(start), prev.End.Sub(prev.Start))
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), prev.Start)
	})

	t.Run("windows do not overlap", func(t *testing.T) {
		assert.True(t, prev.End.Before(start))
	})
}

func TestChangesBetween(t *testing.T) {
	previous := AnalyticsResult{
		TotalFeedback:       10,
		AverageQuality:      0.5,
		ResponseRate:        0.4,
		AverageResponseTime: 8,
	}
	current := AnalyticsResult{
		TotalFeedback:       20,
		AverageQuality:      0.6,
		ResponseRate:        0.2,
		AverageResponseTime: 4,
	}

	changes := changesBetween(previous, current)

	assert.InDelta(t, 1.0, changes.FeedbackVolume, 1e-9, "10 -> 20 is +100%")
	assert.InDelta(t, 0.2, changes.QualityScore, 1e-9)
	assert.InDelta(t, -0.5, changes.ResponseRate, 1e-9)
	assert.InDelta(t, -0.5, changes.ResponseTime, 1e-9)
}
