package models

import (
	"time"
)

// AnomalyResult compares the current density with a historical baseline
type AnomalyResult struct {
	IsAnalyzable   bool     `json:"is_analyzable"`
	Message        string   `json:"message"`
	CurrentDensity *float64 `json:"current_density"`
	AverageDensity *float64 `json:"average_density"`
	StdDeviation   *float64 `json:"std_deviation"`
	ZScore         *float64 `json:"z_score"`
}

// HourlyCount is the number of alerts raised in one hour of the day
type HourlyCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// AlertTrend is the rolling hourly alert volume
type AlertTrend struct {
	Points   []HourlyCount `json:"points"`
	MaxCount int64         `json:"max_count"`
}

// HeatmapDay holds hourly density aggregates for one weekday
type HeatmapDay struct {
	DayOfWeek      string      `json:"day_of_week"`
	DayOfWeekIndex int         `json:"day_of_week_index"` // 1 for Monday, 7 for Sunday
	HourlyAverage  [24]float64 `json:"hourly_average"`
	HourlyMax      [24]float64 `json:"hourly_max"`
}

// CameraStatistics summarises the density distribution of a camera
type CameraStatistics struct {
	CameraID       string  `json:"camera_id"`
	CameraName     string  `json:"camera_name"`
	PeakDensity    float64 `json:"peak_density"`
	DensityStdDev  float64 `json:"density_std_dev"`
	AverageDensity float64 `json:"average_density"`
	SampleCount    int     `json:"sample_count"`
}

// ComparisonSummary compares the current density with the same time yesterday and last week.
// Changes are plain differences (current - past), not ratios.
type ComparisonSummary struct {
	CurrentDensity   *float64 `json:"current_density"`
	YesterdayDensity *float64 `json:"yesterday_density"`
	YesterdayChange  *float64 `json:"yesterday_change"`
	LastWeekDensity  *float64 `json:"last_week_density"`
	LastWeekChange   *float64 `json:"last_week_change"`
}

// DashboardSummary counts cameras by state
type DashboardSummary struct {
	TotalCameras    int   `json:"total_cameras"`
	CamerasWithData int   `json:"cameras_with_data"`
	DangerCameras   int   `json:"danger_cameras"`
	RecentEvents    int64 `json:"recent_events"`
}

// CameraEvaluation is the per-camera envelope published each cycle
type CameraEvaluation struct {
	Summary    CameraAnalyticsSummary `json:"summary"`
	Anomaly    AnomalyResult          `json:"anomaly"`
	Comparison ComparisonSummary      `json:"comparison"`
}

// AnalyticsReport is the slower periodic report over all cameras
type AnalyticsReport struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Dashboard   DashboardSummary        `json:"dashboard"`
	Statistics  []CameraStatistics      `json:"statistics"`
	Heatmaps    map[string][]HeatmapDay `json:"heatmaps"`
	Recent      []AlertRecord           `json:"recent_alerts"`
}
