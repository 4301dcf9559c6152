// Package analytics turns density series into congestion intelligence:
// levels, threshold-crossing forecasts, danger windows, stage alerts,
// baseline anomalies and alert trends. Every function is a pure transform
// of its inputs.
package analytics

import (
	"kepler-congestion-go/internal/models"
)

// Classify maps a density to its congestion level. A nil density means no data.
func Classify(density *float64) models.CongestionLevel {
	if density == nil {
		return models.CongestionNoData
	}
	return ClassifyValue(*density)
}

// ClassifyValue maps a known density to its congestion level
func ClassifyValue(density float64) models.CongestionLevel {
	switch {
	case density >= models.DangerThreshold:
		return models.CongestionDanger
	case density >= models.CautionThreshold:
		return models.CongestionCaution
	default:
		return models.CongestionFree
	}
}

func ptr[T any](v T) *T { return &v }
