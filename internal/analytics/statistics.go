package analytics

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"kepler-congestion-go/internal/models"
)

// ComparisonHalfWindow is the half-width of the averaging window used by comparisons
const ComparisonHalfWindow = 7 * time.Minute

// ComputeCameraStatistics reports peak density and population spread of a camera.
// It returns false when there are no samples.
func ComputeCameraStatistics(camera models.CameraRef, samples []models.DensitySample) (models.CameraStatistics, bool) {
	if len(samples) == 0 {
		return models.CameraStatistics{}, false
	}

	densities := make([]float64, len(samples))
	for i, sample := range samples {
		densities[i] = sample.Density
	}
	mean, stdDev := stat.PopMeanStdDev(densities, nil)

	return models.CameraStatistics{
		CameraID:       camera.ID,
		CameraName:     camera.Name,
		PeakDensity:    floats.Max(densities),
		DensityStdDev:  stdDev,
		AverageDensity: mean,
		SampleCount:    len(densities),
	}, true
}

// AverageDensity averages samples with from <= timestamp <= to; nil when none match
func AverageDensity(samples []models.DensitySample, from, to time.Time) *float64 {
	var values []float64
	for _, sample := range samples {
		if sample.Timestamp.Before(from) || sample.Timestamp.After(to) {
			continue
		}
		values = append(values, sample.Density)
	}
	if len(values) == 0 {
		return nil
	}
	return ptr(stat.Mean(values, nil))
}

// CompareWithHistory compares the density around now with the same time
// yesterday and one week ago.
func CompareWithHistory(samples []models.DensitySample, now time.Time) models.ComparisonSummary {
	around := func(t time.Time) *float64 {
		return AverageDensity(samples, t.Add(-ComparisonHalfWindow), t.Add(ComparisonHalfWindow))
	}

	current := around(now)
	yesterday := around(now.AddDate(0, 0, -1))
	lastWeek := around(now.AddDate(0, 0, -7))

	return models.ComparisonSummary{
		CurrentDensity:   current,
		YesterdayDensity: yesterday,
		YesterdayChange:  densityChange(current, yesterday),
		LastWeekDensity:  lastWeek,
		LastWeekChange:   densityChange(current, lastWeek),
	}
}

// densityChange is the plain difference in density points. Consumers render it
// as a percentage, but it is not a growth rate.
func densityChange(current, past *float64) *float64 {
	if current == nil || past == nil {
		return nil
	}
	return ptr(*current - *past)
}
