package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"kepler-congestion-go/internal/models"
)

const (
	maxRecentAlerts      = 30
	defaultHistoryWindow = 7 * 24 * time.Hour
	defaultHistoryPage   = 15
	maxHistoryPage       = 100
)

// RecentAlerts returns the newest alerts across cameras. The limit is clamped to [1, 30].
func RecentAlerts(records []models.AlertRecord, limit int) []models.AlertRecord {
	limit = max(1, min(limit, maxRecentAlerts))

	sorted := make([]models.AlertRecord, 0, len(records))
	for _, record := range records {
		if record.Event.Timestamp.IsZero() {
			continue
		}
		sorted = append(sorted, record)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Event.Timestamp.After(sorted[j].Event.Timestamp)
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// QueryAlertHistory filters, sorts and pages the alert log. Results are
// newest first unless the query asks for ascending order.
func QueryAlertHistory(records []models.AlertRecord, query models.AlertHistoryQuery, now time.Time) models.AlertHistoryPage {
	start := now.Add(-defaultHistoryWindow)
	if query.Start != nil {
		start = *query.Start
	}
	search := strings.ToLower(strings.TrimSpace(query.Search))

	matched := make([]models.AlertRecord, 0)
	for _, record := range records {
		event := record.Event
		switch {
		case event.Timestamp.IsZero(), event.Timestamp.Before(start):
			continue
		case query.End != nil && event.Timestamp.After(*query.End):
			continue
		case query.CameraID != "" && record.CameraID != query.CameraID:
			continue
		case query.Severity != "" && event.Severity != query.Severity:
			continue
		case query.MinDensity != nil && event.Density < *query.MinDensity:
			continue
		case query.MaxDensity != nil && event.Density > *query.MaxDensity:
			continue
		case search != "" && !matchesSearch(record, search):
			continue
		}
		matched = append(matched, record)
	}

	sortRecords(matched, query.SortBy, !query.Ascending)

	size := query.Size
	if size <= 0 {
		size = defaultHistoryPage
	}
	size = min(size, maxHistoryPage)
	page := max(0, query.Page)

	total := len(matched)
	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(size)))
	}
	from := min(page*size, total)
	to := min(from+size, total)

	return models.AlertHistoryPage{
		Content:       matched[from:to],
		TotalElements: total,
		TotalPages:    totalPages,
		Page:          page,
		Size:          size,
	}
}

func matchesSearch(record models.AlertRecord, keyword string) bool {
	return strings.Contains(strings.ToLower(record.CameraName), keyword) ||
		strings.Contains(strings.ToLower(record.Event.Title), keyword) ||
		strings.Contains(strings.ToLower(record.Event.Message), keyword)
}

func sortRecords(records []models.AlertRecord, field models.AlertSortField, descending bool) {
	var less func(a, b models.AlertRecord) bool
	switch field {
	case models.AlertSortCameraName:
		less = func(a, b models.AlertRecord) bool {
			return strings.ToLower(a.CameraName) < strings.ToLower(b.CameraName)
		}
	case models.AlertSortSeverity:
		less = func(a, b models.AlertRecord) bool {
			return a.Event.Severity.Rank() < b.Event.Severity.Rank()
		}
	case models.AlertSortDensity:
		less = func(a, b models.AlertRecord) bool {
			return a.Event.Density < b.Event.Density
		}
	default:
		less = func(a, b models.AlertRecord) bool {
			return a.Event.Timestamp.Before(b.Event.Timestamp)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if descending {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}
