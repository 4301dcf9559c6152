package models

import (
	"time"
)

// CongestionLevel is the qualitative level derived from density
type CongestionLevel string

const (
	CongestionNoData  CongestionLevel = "NO_DATA"
	CongestionFree    CongestionLevel = "FREE"
	CongestionCaution CongestionLevel = "CAUTION"
	CongestionDanger  CongestionLevel = "DANGER"
)

type levelInfo struct {
	severity int
	label    string
	tone     string
}

var congestionLevels = map[CongestionLevel]levelInfo{
	CongestionNoData:  {severity: 0, label: "No data", tone: "neutral"},
	CongestionFree:    {severity: 1, label: "Free", tone: "neutral"},
	CongestionCaution: {severity: 2, label: "Caution", tone: "warning"},
	CongestionDanger:  {severity: 3, label: "Danger", tone: "danger"},
}

// CongestionLevels lists every level in severity order
func CongestionLevels() []CongestionLevel {
	return []CongestionLevel{CongestionNoData, CongestionFree, CongestionCaution, CongestionDanger}
}

// String returns the string representation of CongestionLevel
func (l CongestionLevel) String() string {
	return string(l)
}

// IsValid checks if the level is known
func (l CongestionLevel) IsValid() bool {
	_, ok := congestionLevels[l]
	return ok
}

// Severity orders levels: NO_DATA < FREE < CAUTION < DANGER
func (l CongestionLevel) Severity() int {
	return congestionLevels[l].severity
}

// Label is the display label
func (l CongestionLevel) Label() string {
	return congestionLevels[l].label
}

// Tone is the UI tone token
func (l CongestionLevel) Tone() string {
	if info, ok := congestionLevels[l]; ok {
		return info.tone
	}
	return "neutral"
}

// EtaType tells which way the projected crossing goes
type EtaType string

const (
	EtaEnteringDanger EtaType = "ENTERING_DANGER"
	EtaExitingDanger  EtaType = "EXITING_DANGER"
	EtaNone           EtaType = "NONE"
)

// EtaResult projects when density crosses the danger threshold
type EtaResult struct {
	Seconds *int64  `json:"seconds"`
	Type    EtaType `json:"type"`
	Message string  `json:"message"`
}

// DangerWindow is the contiguous time, ending at the newest sample, spent at or above danger
type DangerWindow struct {
	Seconds int64      `json:"seconds"`
	Since   *time.Time `json:"since"`
}

// CameraAnalyticsSummary aggregates the analytics of one camera at one evaluation instant
type CameraAnalyticsSummary struct {
	CameraID   string          `json:"camera_id"`
	CameraName string          `json:"camera_name"`
	HasData    bool            `json:"has_data"`
	Level      CongestionLevel `json:"level"`

	Density     *float64   `json:"density"`
	PersonCount *int       `json:"person_count"`
	Timestamp   *time.Time `json:"timestamp"`

	VelocityPerMinute      *float64 `json:"velocity_per_minute"`
	AccelerationPerMinute2 *float64 `json:"acceleration_per_minute2"`

	EtaSeconds *int64  `json:"eta_seconds"`
	EtaType    EtaType `json:"eta_type"`
	EtaMessage string  `json:"eta_message"`

	DangerSeconds int64      `json:"danger_seconds"`
	DangerSince   *time.Time `json:"danger_since"`

	Series      []DensityPoint    `json:"series"`
	StageAlerts []StageAlertEvent `json:"stage_alerts"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}
