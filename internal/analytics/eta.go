package analytics

import (
	"fmt"
	"math"

	"kepler-congestion-go/internal/models"
)

const (
	// Below this magnitude a coefficient is treated as zero
	epsilon = 1e-6

	msgNoRecentData      = "insufficient recent data"
	msgNoTrendSamples    = "insufficient samples to compute trend"
	msgNoLevelChange     = "no trend indicating level change"
	msgEntryUnsolvable   = "trend too volatile to estimate danger entry"
	msgExitUnsolvable    = "trend too volatile to estimate danger exit"
	msgEtaUnavailable    = "no ETA available"
	etaEnteringFormat    = "about %s until danger"
	etaExitingFormat     = "about %s until back to caution"
	minutesDisplayFormat = "%d min"
)

// VelocityPerMinute converts an upstream per-second velocity
func VelocityPerMinute(perSecond *float64) *float64 {
	if perSecond == nil {
		return nil
	}
	return ptr(*perSecond * 60)
}

// AccelerationPerMinute2 converts an upstream per-second² acceleration
func AccelerationPerMinute2(perSecond2 *float64) *float64 {
	if perSecond2 == nil {
		return nil
	}
	return ptr(*perSecond2 * 3600)
}

// TrendFromSample returns the per-minute trend of a sample, or nil when the
// sample carries no velocity.
func TrendFromSample(sample models.DensitySample) *models.TrendVector {
	v := VelocityPerMinute(sample.VelocityPerSecond)
	if v == nil {
		return nil
	}
	return &models.TrendVector{
		VelocityPerMinute:      *v,
		AccelerationPerMinute2: AccelerationPerMinute2(sample.AccelerationPerSecond2),
	}
}

// ComputeETA projects when density crosses the danger threshold.
// velocity is per minute, acceleration per minute²; a nil acceleration counts as zero.
func ComputeETA(current, velocity, acceleration *float64) models.EtaResult {
	if current == nil {
		return noEta(msgNoRecentData)
	}
	if velocity == nil {
		return noEta(msgNoTrendSamples)
	}

	density := *current
	v := *velocity
	a := 0.0
	if acceleration != nil {
		a = *acceleration
	}

	switch {
	case density < models.DangerThreshold && v > 0:
		minutes, ok := SolveThresholdCrossing(density, v, a, models.DangerThreshold)
		if !ok {
			return noEta(msgEntryUnsolvable)
		}
		seconds := minutesToSeconds(minutes)
		return models.EtaResult{
			Seconds: ptr(seconds),
			Type:    models.EtaEnteringDanger,
			Message: fmt.Sprintf(etaEnteringFormat, FormatMinutes(seconds)),
		}

	case density >= models.DangerThreshold && v < 0:
		minutes, ok := SolveThresholdCrossing(density, v, a, models.DangerThreshold)
		if !ok {
			return noEta(msgExitUnsolvable)
		}
		seconds := minutesToSeconds(minutes)
		return models.EtaResult{
			Seconds: ptr(seconds),
			Type:    models.EtaExitingDanger,
			Message: fmt.Sprintf(etaExitingFormat, FormatMinutes(seconds)),
		}
	}

	return noEta(msgNoLevelChange)
}

// SolveThresholdCrossing finds the earliest positive time t, in minutes, at which
// current + v·t + ½·a·t² equals threshold.
func SolveThresholdCrossing(current, v, a, threshold float64) (float64, bool) {
	diff := current - threshold

	if math.Abs(a) < epsilon {
		if math.Abs(v) < epsilon {
			return 0, false
		}
		t := -diff / v
		return t, t > 0
	}

	qa := 0.5 * a
	qb := v
	qc := diff
	discriminant := qb*qb - 4*qa*qc
	if discriminant < 0 {
		return 0, false
	}

	root := math.Sqrt(discriminant)
	t1 := (-qb + root) / (2 * qa)
	t2 := (-qb - root) / (2 * qa)
	return pickPositiveMinimum(t1, t2)
}

func pickPositiveMinimum(t1, t2 float64) (float64, bool) {
	best, found := 0.0, false
	for _, t := range []float64{t1, t2} {
		if t > 0 && (!found || t < best) {
			best, found = t, true
		}
	}
	return best, found
}

func minutesToSeconds(minutes float64) int64 {
	return int64(math.Round(minutes * 60))
}

// FormatMinutes renders seconds as whole minutes, rounded up
func FormatMinutes(seconds int64) string {
	minutes := int64(math.Ceil(float64(seconds) / 60))
	return fmt.Sprintf(minutesDisplayFormat, minutes)
}

func noEta(message string) models.EtaResult {
	return models.EtaResult{Type: models.EtaNone, Message: message}
}
