// Package alerts builds the published form of stage alerts.
package alerts

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"kepler-congestion-go/internal/models"
)

// NewRecord assigns an alert id to a stage alert of camera
func NewRecord(camera models.CameraRef, event models.StageAlertEvent) models.AlertRecord {
	return models.AlertRecord{
		AlertID:    uuid.NewString(),
		CameraID:   camera.ID,
		CameraName: camera.Name,
		Location:   camera.Location,
		Event:      event,
	}
}

// BuildStageAlert is the payload published for a record
func BuildStageAlert(record models.AlertRecord, publishedAt time.Time) models.AlertPayload {
	return record.Payload(publishedAt)
}

// Subject routes an alert to <base>.<code>, e.g. alerts.A3
func Subject(base string, code models.StageAlertCode) string {
	base = strings.TrimSuffix(base, ".")
	if base == "" {
		base = "alerts"
	}
	return base + "." + string(code)
}
