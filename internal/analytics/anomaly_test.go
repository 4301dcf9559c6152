package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepler-congestion-go/internal/models"
)

// twentyPoints has mean 0.30 and population standard deviation 0.05
func twentyPoints() []float64 {
	values := make([]float64, 0, 20)
	for i := 0; i < 10; i++ {
		values = append(values, 0.25, 0.35)
	}
	return values
}

func TestDetectAnomaly(t *testing.T) {
	t.Parallel()

	t.Run("unusually high", func(t *testing.T) {
		t.Parallel()
		result := DetectAnomaly(f64(0.45), twentyPoints())

		require.True(t, result.IsAnalyzable)
		assert.Equal(t, "unusually high", result.Message)
		assert.InDelta(t, 0.30, *result.AverageDensity, 1e-9)
		assert.InDelta(t, 0.05, *result.StdDeviation, 1e-9)
		assert.InDelta(t, 3.0, *result.ZScore, 1e-6)
	})

	t.Run("not enough history", func(t *testing.T) {
		t.Parallel()
		result := DetectAnomaly(f64(0.45), twentyPoints()[:19])

		assert.False(t, result.IsAnalyzable)
		assert.Equal(t, "insufficient historical data (19 points)", result.Message)
		assert.Nil(t, result.ZScore)
		assert.Equal(t, 0.45, *result.CurrentDensity)
	})

	t.Run("no current density", func(t *testing.T) {
		t.Parallel()
		result := DetectAnomaly(nil, twentyPoints())

		assert.False(t, result.IsAnalyzable)
		assert.Nil(t, result.CurrentDensity)
	})

	t.Run("flat baseline", func(t *testing.T) {
		t.Parallel()
		flat := make([]float64, 25)
		for i := range flat {
			flat[i] = 0.4
		}

		result := DetectAnomaly(f64(0.9), flat)

		require.True(t, result.IsAnalyzable)
		assert.Equal(t, "no variation", result.Message)
		assert.Equal(t, 0.0, *result.ZScore)
	})

	tests := []struct {
		current float64
		want    string
	}{
		{0.40, "higher than usual"},
		{0.30, "normal range"},
		{0.37, "normal range"},
		{0.22, "lower than usual"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectAnomaly(f64(tt.current), twentyPoints()).Message)
		})
	}
}

func TestBaselineWindowFor(t *testing.T) {
	t.Parallel()

	t.Run("spread around the current hour", func(t *testing.T) {
		t.Parallel()
		w := BaselineWindowFor(baseTime)

		assert.Equal(t, 13, w.HourFrom)
		assert.Equal(t, 15, w.HourTo)
		assert.Equal(t, time.Wednesday, w.Weekday)
		assert.Equal(t, baseTime.Add(-28*24*time.Hour), w.Since)
	})

	t.Run("clamped at midnight", func(t *testing.T) {
		t.Parallel()
		w := BaselineWindowFor(time.Date(2025, time.March, 12, 0, 10, 0, 0, time.UTC))
		assert.Equal(t, 0, w.HourFrom)
		assert.Equal(t, 1, w.HourTo)
	})

	t.Run("clamped at the last hour", func(t *testing.T) {
		t.Parallel()
		w := BaselineWindowFor(time.Date(2025, time.March, 12, 23, 50, 0, 0, time.UTC))
		assert.Equal(t, 22, w.HourFrom)
		assert.Equal(t, 23, w.HourTo)
	})
}

func TestSelectBaseline(t *testing.T) {
	t.Parallel()

	week := 7 * 24 * time.Hour
	history := []models.DensitySample{
		// same slot last week
		sampleAt(1, baseTime.Add(-week), 0.1),
		// hour 15 last week
		sampleAt(2, baseTime.Add(-week+time.Hour), 0.2),
		// hour 12, outside the spread
		sampleAt(3, baseTime.Add(-week-2*time.Hour), 0.3),
		// Tuesday
		sampleAt(4, baseTime.Add(-24*time.Hour), 0.4),
		// beyond four weeks
		sampleAt(5, baseTime.Add(-5*week), 0.5),
		// exactly four weeks back
		sampleAt(6, baseTime.Add(-4*week), 0.6),
		// the evaluated instant
		sampleAt(7, baseTime, 0.7),
		// future
		sampleAt(8, baseTime.Add(week), 0.8),
		// 13:00 two weeks back
		sampleAt(9, baseTime.Add(-2*week-90*time.Minute), 0.9),
	}

	got := SelectBaseline(BaselineWindowFor(baseTime), history)

	assert.Equal(t, []float64{0.1, 0.2, 0.6, 0.7, 0.9}, got)
}

func TestDetectSampleAnomaly(t *testing.T) {
	t.Parallel()

	var history []models.DensitySample
	for week := 1; week <= 4; week++ {
		for i, density := range []float64{0.25, 0.35, 0.25, 0.35, 0.25} {
			ts := baseTime.Add(-time.Duration(week) * 7 * 24 * time.Hour).Add(time.Duration(i) * time.Minute)
			history = append(history, sampleAt(int64(week*10+i), ts, density))
		}
	}
	require.Len(t, history, 20)

	result := DetectSampleAnomaly(sampleAt(99, baseTime, 0.9), history)

	require.True(t, result.IsAnalyzable)
	assert.Equal(t, "unusually high", result.Message)
}
