package models

import (
	"time"
)

// StageAlertCode identifies a stage alert rule
type StageAlertCode string

const (
	// StageAlertNoop is reserved for status rows that are not alerts
	StageAlertNoop       StageAlertCode = "A0"
	StageAlertImminent   StageAlertCode = "A1"
	StageAlertBreached   StageAlertCode = "A3"
	StageAlertEscalating StageAlertCode = "A4"
	StageAlertResolved   StageAlertCode = "A6"
)

// StageSeverity is the simplified severity of a generated alert
type StageSeverity string

const (
	StageSeverityInfo    StageSeverity = "INFO"
	StageSeverityWarning StageSeverity = "WARNING"
	StageSeverityDanger  StageSeverity = "DANGER"
)

// CSSSuffix returns the lower-case token used by dashboards
func (s StageSeverity) CSSSuffix() string {
	switch s {
	case StageSeverityDanger:
		return "high"
	case StageSeverityWarning:
		return "medium"
	default:
		return "low"
	}
}

// Rank orders severities for sorting, most severe first
func (s StageSeverity) Rank() int {
	switch s {
	case StageSeverityDanger:
		return 0
	case StageSeverityWarning:
		return 1
	case StageSeverityInfo:
		return 2
	default:
		return 3
	}
}

// StageAlertEvent is a discrete alert derived from one density sample
type StageAlertEvent struct {
	SampleID  int64          `json:"sample_id"`
	Code      StageAlertCode `json:"code"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Severity  StageSeverity  `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Density   float64        `json:"density"`
}

// AlertPayload is what gets published for every new stage alert
type AlertPayload struct {
	AlertID       string         `json:"alert_id"`
	CameraID      string         `json:"camera_id"`
	CameraName    string         `json:"camera_name"`
	Location      string         `json:"location,omitempty"`
	Code          StageAlertCode `json:"code"`
	Title         string         `json:"title"`
	Message       string         `json:"message"`
	Severity      StageSeverity  `json:"severity"`
	SeverityToken string         `json:"severity_token"`
	Timestamp     time.Time      `json:"timestamp"`
	Density       float64        `json:"density"`
	PublishedAt   time.Time      `json:"published_at"`
}

// AlertRecord is a published alert kept in the alert log
type AlertRecord struct {
	AlertID    string          `json:"alert_id"`
	CameraID   string          `json:"camera_id"`
	CameraName string          `json:"camera_name"`
	Location   string          `json:"location,omitempty"`
	Event      StageAlertEvent `json:"event"`
}

// Payload builds the wire payload of the record
func (r AlertRecord) Payload(publishedAt time.Time) AlertPayload {
	return AlertPayload{
		AlertID:       r.AlertID,
		CameraID:      r.CameraID,
		CameraName:    r.CameraName,
		Location:      r.Location,
		Code:          r.Event.Code,
		Title:         r.Event.Title,
		Message:       r.Event.Message,
		Severity:      r.Event.Severity,
		SeverityToken: r.Event.Severity.CSSSuffix(),
		Timestamp:     r.Event.Timestamp,
		Density:       r.Event.Density,
		PublishedAt:   publishedAt,
	}
}

// AlertCooldownKey represents a unique key for alert cooldown tracking
type AlertCooldownKey struct {
	CameraID string
	Code     StageAlertCode
}

// String returns a string representation of the cooldown key
func (k AlertCooldownKey) String() string {
	return k.CameraID + "|" + string(k.Code)
}

// ProcessedAlerts represents the result of processing one camera's timeline
type ProcessedAlerts struct {
	Considered int
	Published  int
	Suppressed int
	Errors     []string
}

// AlertSortField selects the alert history ordering
type AlertSortField string

const (
	AlertSortTimestamp  AlertSortField = "timestamp"
	AlertSortCameraName AlertSortField = "cameraName"
	AlertSortSeverity   AlertSortField = "severity"
	AlertSortDensity    AlertSortField = "density"
)

// AlertHistoryQuery filters, sorts and pages the alert log
type AlertHistoryQuery struct {
	CameraID   string         `json:"camera_id,omitempty"`
	Start      *time.Time     `json:"start,omitempty"`
	End        *time.Time     `json:"end,omitempty"`
	Severity   StageSeverity  `json:"severity,omitempty"`
	MinDensity *float64       `json:"min_density,omitempty"`
	MaxDensity *float64       `json:"max_density,omitempty"`
	Search     string         `json:"search,omitempty"`
	SortBy     AlertSortField `json:"sort_by,omitempty"`
	Ascending  bool           `json:"ascending,omitempty"`
	Page       int            `json:"page,omitempty"`
	Size       int            `json:"size,omitempty"`
}

// AlertHistoryPage is one page of the alert history
type AlertHistoryPage struct {
	Content       []AlertRecord `json:"content"`
	TotalElements int           `json:"total_elements"`
	TotalPages    int           `json:"total_pages"`
	Page          int           `json:"page"`
	Size          int           `json:"size"`
}

// MessagePublisher interface for publishing analytics results
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}
