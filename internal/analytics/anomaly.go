package analytics

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"kepler-congestion-go/internal/models"
)

const (
	// MinBaselinePoints is the smallest baseline a z-score is computed from
	MinBaselinePoints = 20
	// BaselineHistory is how far back the baseline reaches
	BaselineHistory = 4 * 7 * 24 * time.Hour
	// BaselineHourSpread is the hour-of-day tolerance around the current hour
	BaselineHourSpread = 1

	zUnusuallyHigh = 2.5
	zHigher        = 1.5
	zLower         = -1.5
)

// BaselineWindow selects comparable historical samples: same weekday, nearby
// hour, within the look-back period.
type BaselineWindow struct {
	Since    time.Time
	Until    time.Time
	Weekday  time.Weekday
	HourFrom int
	HourTo   int
}

// BaselineWindowFor builds the window for a sample taken at ts
func BaselineWindowFor(ts time.Time) BaselineWindow {
	hour := ts.Hour()
	return BaselineWindow{
		Since:    ts.Add(-BaselineHistory),
		Until:    ts,
		Weekday:  ts.Weekday(),
		HourFrom: max(0, hour-BaselineHourSpread),
		HourTo:   min(23, hour+BaselineHourSpread),
	}
}

// Contains reports whether t falls inside the window, both ends inclusive
func (w BaselineWindow) Contains(t time.Time) bool {
	t = t.In(w.Until.Location())
	if t.Before(w.Since) || t.After(w.Until) {
		return false
	}
	if t.Weekday() != w.Weekday {
		return false
	}
	h := t.Hour()
	return h >= w.HourFrom && h <= w.HourTo
}

// SelectBaseline keeps the densities of samples inside the window
func SelectBaseline(window BaselineWindow, history []models.DensitySample) []float64 {
	baseline := make([]float64, 0, len(history))
	for _, sample := range history {
		if window.Contains(sample.Timestamp) {
			baseline = append(baseline, sample.Density)
		}
	}
	return baseline
}

// DetectAnomaly scores the current density against a baseline using the
// population standard deviation.
func DetectAnomaly(current *float64, baseline []float64) models.AnomalyResult {
	if current == nil {
		return notAnalyzable("no current data", nil)
	}
	if len(baseline) < MinBaselinePoints {
		return notAnalyzable(fmt.Sprintf("insufficient historical data (%d points)", len(baseline)), current)
	}

	mean, stdDev := stat.PopMeanStdDev(baseline, nil)
	if stdDev < epsilon {
		return models.AnomalyResult{
			IsAnalyzable:   true,
			Message:        "no variation",
			CurrentDensity: current,
			AverageDensity: ptr(mean),
			StdDeviation:   ptr(stdDev),
			ZScore:         ptr(0.0),
		}
	}

	z := (*current - mean) / stdDev
	return models.AnomalyResult{
		IsAnalyzable:   true,
		Message:        zScoreBand(z),
		CurrentDensity: current,
		AverageDensity: ptr(mean),
		StdDeviation:   ptr(stdDev),
		ZScore:         ptr(z),
	}
}

// DetectSampleAnomaly selects the baseline for the newest sample out of an
// arbitrary history and scores it.
func DetectSampleAnomaly(current models.DensitySample, history []models.DensitySample) models.AnomalyResult {
	baseline := SelectBaseline(BaselineWindowFor(current.Timestamp), history)
	return DetectAnomaly(ptr(current.Density), baseline)
}

func zScoreBand(z float64) string {
	switch {
	case z > zUnusuallyHigh:
		return "unusually high"
	case z > zHigher:
		return "higher than usual"
	case z < zLower:
		return "lower than usual"
	default:
		return "normal range"
	}
}

func notAnalyzable(message string, current *float64) models.AnomalyResult {
	return models.AnomalyResult{
		IsAnalyzable:   false,
		Message:        message,
		CurrentDensity: current,
	}
}
