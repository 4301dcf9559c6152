package analytics

import (
	"kepler-congestion-go/internal/models"
)

// BuildDashboardSummary counts cameras with data and cameras currently in danger
func BuildDashboardSummary(totalCameras int, summaries []models.CameraAnalyticsSummary, recentEvents int64) models.DashboardSummary {
	dashboard := models.DashboardSummary{
		TotalCameras: totalCameras,
		RecentEvents: recentEvents,
	}
	for _, summary := range summaries {
		if !summary.HasData {
			continue
		}
		dashboard.CamerasWithData++
		if summary.Level == models.CongestionDanger {
			dashboard.DangerCameras++
		}
	}
	return dashboard
}
