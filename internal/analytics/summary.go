package analytics

import (
	"time"

	"kepler-congestion-go/internal/models"
)

// Summarize derives the analytics summary of one camera from its recent samples.
// Samples are expected newest first; other orders are normalised, never rejected.
func Summarize(camera models.CameraRef, samples []models.DensitySample, now time.Time) models.CameraAnalyticsSummary {
	series := NormalizeSeries(samples)
	latest, ok := series.Newest()
	if !ok {
		return EmptySummary(camera, now)
	}

	velocity := VelocityPerMinute(latest.VelocityPerSecond)
	acceleration := AccelerationPerMinute2(latest.AccelerationPerSecond2)
	eta := ComputeETA(ptr(latest.Density), velocity, acceleration)
	window := ComputeDangerWindow(series)

	// The limit is a positive constant, so no error can come back.
	alerts, _ := BuildStageAlerts(series, DefaultAlertLimit)

	return models.CameraAnalyticsSummary{
		CameraID:               camera.ID,
		CameraName:             camera.Name,
		HasData:                true,
		Level:                  ClassifyValue(latest.Density),
		Density:                ptr(latest.Density),
		PersonCount:            ptr(latest.PersonCount),
		Timestamp:              ptr(latest.Timestamp),
		VelocityPerMinute:      velocity,
		AccelerationPerMinute2: acceleration,
		EtaSeconds:             eta.Seconds,
		EtaType:                eta.Type,
		EtaMessage:             eta.Message,
		DangerSeconds:          window.Seconds,
		DangerSince:            window.Since,
		Series:                 densityPoints(series),
		StageAlerts:            alerts,
		EvaluatedAt:            now,
	}
}

// EmptySummary is the neutral summary of a camera without samples
func EmptySummary(camera models.CameraRef, now time.Time) models.CameraAnalyticsSummary {
	return models.CameraAnalyticsSummary{
		CameraID:    camera.ID,
		CameraName:  camera.Name,
		HasData:     false,
		Level:       models.CongestionNoData,
		EtaType:     models.EtaNone,
		EtaMessage:  msgEtaUnavailable,
		Series:      []models.DensityPoint{},
		StageAlerts: []models.StageAlertEvent{},
		EvaluatedAt: now,
	}
}

// NormalizeSeries orders samples newest first with a stable sort
func NormalizeSeries(samples []models.DensitySample) models.DensitySeries {
	return models.NormalizeSeries(samples)
}

func densityPoints(series models.DensitySeries) []models.DensityPoint {
	ascending := series.Ascending()
	points := make([]models.DensityPoint, len(ascending))
	for i, sample := range ascending {
		points[i] = models.DensityPoint{
			Timestamp:   sample.Timestamp,
			Density:     sample.Density,
			PersonCount: sample.PersonCount,
		}
	}
	return points
}
