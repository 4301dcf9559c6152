package analytics

import (
	"time"

	"kepler-congestion-go/internal/models"
)

// Wednesday afternoon, UTC
var baseTime = time.Date(2025, time.March, 12, 14, 30, 0, 0, time.UTC)

// perSecond turns a per-minute velocity into the upstream per-second unit
func perSecond(perMinute float64) *float64 {
	v := perMinute / 60
	return &v
}

func sampleAt(id int64, ts time.Time, density float64) models.DensitySample {
	return models.DensitySample{
		ID:          id,
		CameraID:    "cam-1",
		Timestamp:   ts,
		Density:     density,
		PersonCount: int(density * 100),
	}
}

func risingSample(id int64, ts time.Time, density, velocityPerMinute float64) models.DensitySample {
	s := sampleAt(id, ts, density)
	s.VelocityPerSecond = perSecond(velocityPerMinute)
	return s
}

func f64(v float64) *float64 { return &v }
