package analytics

import (
	"errors"
	"fmt"

	"kepler-congestion-go/internal/models"
)

const (
	// DefaultAlertLimit caps the timeline attached to a summary
	DefaultAlertLimit = 10

	// EtaNoticeWindowSeconds is how far ahead an imminent-danger alert looks
	EtaNoticeWindowSeconds = 600

	// EscalationVelocity is the per-minute rise that marks escalation while in danger
	EscalationVelocity = 0.02
)

// ErrInvalidLimit is returned for a negative alert limit
var ErrInvalidLimit = errors.New("alert limit must not be negative")

// sampleContext is what every stage rule sees for one sample
type sampleContext struct {
	current  models.DensitySample
	previous *models.DensitySample
	velocity *float64
	eta      models.EtaResult
}

func (c sampleContext) inDanger() bool {
	return c.current.Density >= models.DangerThreshold
}

type stageRule struct {
	code     models.StageAlertCode
	title    string
	severity models.StageSeverity
	applies  func(sampleContext) bool
	message  func(sampleContext) string
}

// stageRules are evaluated in order for each sample. A3/A4 require the sample
// to be in danger and A6 requires it not to be, so they never fire together.
var stageRules = []stageRule{
	{
		code:     models.StageAlertImminent,
		title:    "Danger imminent",
		severity: models.StageSeverityWarning,
		applies: func(c sampleContext) bool {
			return c.eta.Type == models.EtaEnteringDanger &&
				c.eta.Seconds != nil &&
				*c.eta.Seconds > 0 &&
				*c.eta.Seconds <= EtaNoticeWindowSeconds
		},
		message: func(c sampleContext) string {
			return fmt.Sprintf("danger level expected in about %s", FormatMinutes(*c.eta.Seconds))
		},
	},
	{
		code:     models.StageAlertBreached,
		title:    "Danger threshold breached",
		severity: models.StageSeverityDanger,
		applies:  sampleContext.inDanger,
		message: func(c sampleContext) string {
			return fmt.Sprintf("density %.2f exceeded the %.2f threshold", c.current.Density, models.DangerThreshold)
		},
	},
	{
		code:     models.StageAlertEscalating,
		title:    "Congestion escalating",
		severity: models.StageSeverityDanger,
		applies: func(c sampleContext) bool {
			return c.inDanger() && c.velocity != nil && *c.velocity > EscalationVelocity
		},
		message: func(c sampleContext) string {
			return fmt.Sprintf("rising at +%.2f points per minute", *c.velocity*100)
		},
	},
	{
		code:     models.StageAlertResolved,
		title:    "Danger resolved",
		severity: models.StageSeverityInfo,
		applies: func(c sampleContext) bool {
			return !c.inDanger() && c.previous != nil && c.previous.Density >= models.DangerThreshold
		},
		message: func(sampleContext) string {
			return "density dropped below the danger threshold"
		},
	},
}

// BuildStageAlerts walks a newest-first series and emits stage alerts in rule
// order for each sample, stopping as soon as limit events are collected.
func BuildStageAlerts(series models.DensitySeries, limit int) ([]models.StageAlertEvent, error) {
	if limit < 0 {
		return nil, fmt.Errorf("build stage alerts: %w (got %d)", ErrInvalidLimit, limit)
	}

	alerts := make([]models.StageAlertEvent, 0, min(limit, len(series)))
	if limit == 0 {
		return alerts, nil
	}

	for i := 0; i < len(series) && len(alerts) < limit; i++ {
		ctx := newSampleContext(series, i)
		for _, rule := range stageRules {
			if !rule.applies(ctx) {
				continue
			}
			alerts = append(alerts, rule.event(ctx))
			if len(alerts) >= limit {
				break
			}
		}
	}

	return alerts, nil
}

// StageAlertTimeline returns every stage alert of a newest-first series,
// without the display limit applied to summaries.
func StageAlertTimeline(series models.DensitySeries) []models.StageAlertEvent {
	alerts, _ := BuildStageAlerts(series, len(series)*len(stageRules))
	return alerts
}

// EvaluateSample returns every stage alert a single sample produces, given its
// older neighbour (nil for the oldest sample).
func EvaluateSample(current models.DensitySample, previous *models.DensitySample) []models.StageAlertEvent {
	ctx := contextFor(current, previous)
	var events []models.StageAlertEvent
	for _, rule := range stageRules {
		if rule.applies(ctx) {
			events = append(events, rule.event(ctx))
		}
	}
	return events
}

func newSampleContext(series models.DensitySeries, i int) sampleContext {
	var previous *models.DensitySample
	if i+1 < len(series) {
		previous = &series[i+1]
	}
	return contextFor(series[i], previous)
}

func contextFor(current models.DensitySample, previous *models.DensitySample) sampleContext {
	velocity := VelocityPerMinute(current.VelocityPerSecond)
	acceleration := AccelerationPerMinute2(current.AccelerationPerSecond2)
	return sampleContext{
		current:  current,
		previous: previous,
		velocity: velocity,
		eta:      ComputeETA(ptr(current.Density), velocity, acceleration),
	}
}

func (r stageRule) event(c sampleContext) models.StageAlertEvent {
	return models.StageAlertEvent{
		SampleID:  c.current.ID,
		Code:      r.code,
		Title:     r.title,
		Message:   r.message(c),
		Severity:  r.severity,
		Timestamp: c.current.Timestamp,
		Density:   c.current.Density,
	}
}
