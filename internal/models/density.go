package models

import (
	"sort"
	"time"
)

// Congestion thresholds on normalized density
const (
	CautionThreshold = 0.30
	DangerThreshold  = 0.60
)

// DensitySample is a single density measurement for one camera.
// Velocity and acceleration are kept in the per-second units supplied upstream.
type DensitySample struct {
	ID                     int64     `json:"id"`
	CameraID               string    `json:"camera_id"`
	Timestamp              time.Time `json:"timestamp"`
	Density                float64   `json:"density"`
	PersonCount            int       `json:"person_count"`
	VelocityPerSecond      *float64  `json:"velocity_per_second,omitempty"`
	AccelerationPerSecond2 *float64  `json:"acceleration_per_second2,omitempty"`
}

// DensitySeries holds samples of one camera, newest first
type DensitySeries []DensitySample

// Newest returns the most recent sample
func (s DensitySeries) Newest() (DensitySample, bool) {
	if len(s) == 0 {
		return DensitySample{}, false
	}
	return s[0], true
}

// Ascending returns a copy of the series ordered oldest first
func (s DensitySeries) Ascending() []DensitySample {
	out := make([]DensitySample, len(s))
	for i := range s {
		out[len(s)-1-i] = s[i]
	}
	return out
}

// IsNewestFirst reports whether timestamps never increase along the series
func (s DensitySeries) IsNewestFirst() bool {
	for i := 1; i < len(s); i++ {
		if s[i].Timestamp.After(s[i-1].Timestamp) {
			return false
		}
	}
	return true
}

// NormalizeSeries returns the samples ordered newest first.
// Equal timestamps keep their input order.
func NormalizeSeries(samples []DensitySample) DensitySeries {
	series := DensitySeries(samples)
	if series.IsNewestFirst() {
		return series
	}
	out := make(DensitySeries, len(samples))
	copy(out, samples)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// DensityPoint is a chart point of the density series
type DensityPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Density     float64   `json:"density"`
	PersonCount int       `json:"person_count"`
}

// TrendVector holds density derivatives in per-minute units
type TrendVector struct {
	VelocityPerMinute      float64  `json:"velocity_per_minute"`
	AccelerationPerMinute2 *float64 `json:"acceleration_per_minute2,omitempty"`
}
