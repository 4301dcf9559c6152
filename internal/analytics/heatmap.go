package analytics

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"kepler-congestion-go/internal/models"
)

// HeatmapDays is the look-back of the weekday/hour heatmap
const HeatmapDays = 7

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// BuildHeatmap aggregates the last seven days of samples into hourly averages
// and maxima per weekday, Monday first. Empty hours are zero.
func BuildHeatmap(samples []models.DensitySample, now time.Time) []models.HeatmapDay {
	since := now.AddDate(0, 0, -HeatmapDays)

	var buckets [7][24][]float64
	for _, sample := range samples {
		ts := sample.Timestamp.In(now.Location())
		if !ts.After(since) || ts.After(now) {
			continue
		}
		day := isoWeekdayIndex(ts.Weekday()) - 1
		buckets[day][ts.Hour()] = append(buckets[day][ts.Hour()], sample.Density)
	}

	heatmap := make([]models.HeatmapDay, 0, len(weekdayOrder))
	for i, weekday := range weekdayOrder {
		day := models.HeatmapDay{
			DayOfWeek:      weekday.String()[:3],
			DayOfWeekIndex: i + 1,
		}
		for hour, values := range buckets[i] {
			if len(values) == 0 {
				continue
			}
			day.HourlyAverage[hour] = stat.Mean(values, nil)
			day.HourlyMax[hour] = floats.Max(values)
		}
		heatmap = append(heatmap, day)
	}
	return heatmap
}

// isoWeekdayIndex numbers Monday as 1 and Sunday as 7
func isoWeekdayIndex(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}
