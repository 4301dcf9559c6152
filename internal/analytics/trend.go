package analytics

import (
	"time"

	"kepler-congestion-go/internal/models"
)

// TrendWindowHours is the length of the rolling alert trend
const TrendWindowHours = 12

// TrendCutoff is the earliest timestamp counted by a trend ending at now
func TrendCutoff(now time.Time) time.Time {
	return now.Add(-TrendWindowHours * time.Hour)
}

// BuildTrend counts alert timestamps per hour of day over the last twelve hours
func BuildTrend(timestamps []time.Time, now time.Time) models.AlertTrend {
	cutoff := TrendCutoff(now)
	counts := make(map[int]int64)
	for _, ts := range timestamps {
		if ts.IsZero() || ts.Before(cutoff) {
			continue
		}
		counts[ts.In(now.Location()).Hour()]++
	}
	return TrendFromHourlyCounts(counts, now)
}

// BuildTrendFromStageAlerts is the fallback used when no published alerts
// exist: it counts re-derived stage alerts, skipping the no-op code.
func BuildTrendFromStageAlerts(alerts []models.StageAlertEvent, now time.Time) models.AlertTrend {
	timestamps := make([]time.Time, 0, len(alerts))
	for _, alert := range alerts {
		if alert.Code == models.StageAlertNoop {
			continue
		}
		timestamps = append(timestamps, alert.Timestamp)
	}
	return BuildTrend(timestamps, now)
}

// TrendFromHourlyCounts lays hour-of-day counts onto the twelve hours ending at
// now's hour, oldest first, filling gaps with zero.
func TrendFromHourlyCounts(counts map[int]int64, now time.Time) models.AlertTrend {
	currentHour := now.Hour()
	startHour := currentHour - TrendWindowHours + 1

	trend := models.AlertTrend{Points: make([]models.HourlyCount, 0, TrendWindowHours)}
	for i := 0; i < TrendWindowHours; i++ {
		hour := (startHour + i + 24) % 24
		count := counts[hour]
		trend.Points = append(trend.Points, models.HourlyCount{Hour: hour, Count: count})
		if count > trend.MaxCount {
			trend.MaxCount = count
		}
	}
	return trend
}
