package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepler-congestion-go/internal/models"
)

var testCamera = models.CameraRef{ID: "cam-1", Name: "North Gate", Location: "Plaza"}

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("no samples", func(t *testing.T) {
		t.Parallel()
		summary := Summarize(testCamera, nil, baseTime)

		assert.False(t, summary.HasData)
		assert.Equal(t, models.CongestionNoData, summary.Level)
		assert.Nil(t, summary.Density)
		assert.Nil(t, summary.EtaSeconds)
		assert.Equal(t, models.EtaNone, summary.EtaType)
		assert.Equal(t, msgEtaUnavailable, summary.EtaMessage)
		assert.NotNil(t, summary.Series)
		assert.Empty(t, summary.Series)
		assert.NotNil(t, summary.StageAlerts)
		assert.Empty(t, summary.StageAlerts)
		assert.Equal(t, baseTime, summary.EvaluatedAt)
	})

	t.Run("rising into danger", func(t *testing.T) {
		t.Parallel()
		newest := risingSample(3, baseTime, 0.50, 0.02)
		samples := []models.DensitySample{
			newest,
			sampleAt(2, baseTime.Add(-time.Minute), 0.45),
			sampleAt(1, baseTime.Add(-2*time.Minute), 0.40),
		}

		summary := Summarize(testCamera, samples, baseTime)

		assert.True(t, summary.HasData)
		assert.Equal(t, "cam-1", summary.CameraID)
		assert.Equal(t, "North Gate", summary.CameraName)
		assert.Equal(t, models.CongestionCaution, summary.Level)
		assert.Equal(t, 0.50, *summary.Density)
		assert.Equal(t, 50, *summary.PersonCount)
		assert.Equal(t, baseTime, *summary.Timestamp)
		assert.InDelta(t, 0.02, *summary.VelocityPerMinute, 1e-12)
		assert.Nil(t, summary.AccelerationPerMinute2)

		assert.Equal(t, models.EtaEnteringDanger, summary.EtaType)
		require.NotNil(t, summary.EtaSeconds)
		assert.Equal(t, int64(300), *summary.EtaSeconds)

		assert.Equal(t, int64(0), summary.DangerSeconds)
		assert.Nil(t, summary.DangerSince)

		require.Len(t, summary.Series, 3)
		assert.Equal(t, 0.40, summary.Series[0].Density)
		assert.Equal(t, 0.50, summary.Series[2].Density)

		require.Len(t, summary.StageAlerts, 1)
		assert.Equal(t, models.StageAlertImminent, summary.StageAlerts[0].Code)
	})

	t.Run("sustained danger", func(t *testing.T) {
		t.Parallel()
		samples := []models.DensitySample{
			sampleAt(3, baseTime, 0.7),
			sampleAt(2, baseTime.Add(-time.Minute), 0.65),
			sampleAt(1, baseTime.Add(-2*time.Minute), 0.5),
		}

		summary := Summarize(testCamera, samples, baseTime)

		assert.Equal(t, models.CongestionDanger, summary.Level)
		assert.Equal(t, int64(60), summary.DangerSeconds)
		assert.Equal(t, baseTime.Add(-time.Minute), *summary.DangerSince)
		assert.Equal(t, msgNoTrendSamples, summary.EtaMessage)
	})

	t.Run("order of input does not matter", func(t *testing.T) {
		t.Parallel()
		ordered := []models.DensitySample{
			sampleAt(3, baseTime, 0.7),
			sampleAt(2, baseTime.Add(-time.Minute), 0.65),
			sampleAt(1, baseTime.Add(-2*time.Minute), 0.5),
		}
		shuffled := []models.DensitySample{ordered[2], ordered[0], ordered[1]}

		assert.Equal(t, Summarize(testCamera, ordered, baseTime), Summarize(testCamera, shuffled, baseTime))
	})

	t.Run("repeatable", func(t *testing.T) {
		t.Parallel()
		samples := []models.DensitySample{risingSample(1, baseTime, 0.66, 0.04)}

		first := Summarize(testCamera, samples, baseTime)
		second := Summarize(testCamera, samples, baseTime)

		assert.Equal(t, first, second)
	})
}
