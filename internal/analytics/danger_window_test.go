package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepler-congestion-go/internal/models"
)

func TestComputeDangerWindow(t *testing.T) {
	t.Parallel()

	t0 := baseTime

	t.Run("run stops at first safe sample", func(t *testing.T) {
		t.Parallel()
		series := models.DensitySeries{
			sampleAt(3, t0, 0.7),
			sampleAt(2, t0.Add(-time.Minute), 0.65),
			sampleAt(1, t0.Add(-2*time.Minute), 0.5),
		}

		window := ComputeDangerWindow(series)

		assert.Equal(t, int64(60), window.Seconds)
		require.NotNil(t, window.Since)
		assert.Equal(t, t0.Add(-time.Minute), *window.Since)
	})

	t.Run("whole series in danger", func(t *testing.T) {
		t.Parallel()
		series := models.DensitySeries{
			sampleAt(3, t0, 0.9),
			sampleAt(2, t0.Add(-30*time.Second), 0.6),
			sampleAt(1, t0.Add(-90*time.Second), 0.8),
		}

		window := ComputeDangerWindow(series)

		assert.Equal(t, int64(90), window.Seconds)
		assert.Equal(t, t0.Add(-90*time.Second), *window.Since)
	})

	t.Run("single danger sample", func(t *testing.T) {
		t.Parallel()
		window := ComputeDangerWindow(models.DensitySeries{sampleAt(1, t0, 0.61)})

		assert.Equal(t, int64(0), window.Seconds)
		assert.Equal(t, t0, *window.Since)
	})

	t.Run("newest sample is safe", func(t *testing.T) {
		t.Parallel()
		series := models.DensitySeries{
			sampleAt(2, t0, 0.59),
			sampleAt(1, t0.Add(-time.Minute), 0.9),
		}

		assert.Equal(t, models.DangerWindow{}, ComputeDangerWindow(series))
	})

	t.Run("empty series", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, models.DangerWindow{}, ComputeDangerWindow(nil))
	})

	t.Run("out of order timestamps never go negative", func(t *testing.T) {
		t.Parallel()
		series := models.DensitySeries{
			sampleAt(1, t0, 0.7),
			sampleAt(2, t0.Add(time.Minute), 0.7),
		}

		window := ComputeDangerWindow(series)

		assert.Equal(t, int64(0), window.Seconds)
		assert.Equal(t, t0.Add(time.Minute), *window.Since)
	})
}
