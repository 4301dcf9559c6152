package analytics

import (
	"kepler-congestion-go/internal/models"
)

// ComputeDangerWindow measures how long density has stayed at or above the danger
// threshold, counting back from the newest sample of a newest-first series.
func ComputeDangerWindow(series models.DensitySeries) models.DangerWindow {
	newest, ok := series.Newest()
	if !ok || newest.Density < models.DangerThreshold {
		return models.DangerWindow{}
	}

	start := newest.Timestamp
	for _, sample := range series[1:] {
		if sample.Density < models.DangerThreshold {
			break
		}
		start = sample.Timestamp
	}

	seconds := int64(newest.Timestamp.Sub(start).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	return models.DangerWindow{Seconds: seconds, Since: ptr(start)}
}
