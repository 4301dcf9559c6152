package postprocessing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"kepler-congestion-go/internal/analytics"
	"kepler-congestion-go/internal/config"
	"kepler-congestion-go/internal/logging"
	"kepler-congestion-go/internal/metrics"
	"kepler-congestion-go/internal/models"
	"kepler-congestion-go/internal/services/postprocessing/alerts"
	"kepler-congestion-go/internal/timeutil"
)

// Service decides which stage alerts are new, applies cooldowns and publishes them
type Service struct {
	cfg       *config.Config
	publisher models.MessagePublisher
	clock     timeutil.Clock
	logger    zerolog.Logger
	alertLog  *AlertLog

	cooldownMu sync.RWMutex
	// event time of the last published alert per camera and code
	lastSent map[string]time.Time
	// newest event time already considered per camera
	watermarks map[string]time.Time

	cooldown time.Duration
}

// NewService creates a new postprocessing service
func NewService(cfg *config.Config, publisher models.MessagePublisher, clock timeutil.Clock) (*Service, error) {
	if publisher == nil {
		return nil, fmt.Errorf("message publisher is required")
	}

	s := &Service{
		cfg:        cfg,
		publisher:  publisher,
		clock:      clock,
		logger:     logging.NewServiceLogger(cfg, "postprocessing"),
		alertLog:   NewAlertLog(cfg.AlertLogSize),
		lastSent:   make(map[string]time.Time),
		watermarks: make(map[string]time.Time),
		cooldown:   cfg.AlertsCooldown,
	}

	s.logger.Info().
		Dur("cooldown", s.cooldown).
		Int("alert_log_size", cfg.AlertLogSize).
		Msg("Post-processing service initialized")

	return s, nil
}

// Shutdown stops the service gracefully
func (s *Service) Shutdown(ctx context.Context) error {
	s.logger.Info().Int("logged_alerts", s.alertLog.Len()).Msg("Post-processing service shutdown")
	return nil
}

func (s *Service) AlertLog() *AlertLog {
	return s.alertLog
}

// ProcessStageAlerts publishes the alerts of one camera's timeline that are
// newer than anything seen before and not blocked by cooldown. The timeline
// is newest first by sample with rule order inside each sample. Samples are
// handled oldest first and each sample's alerts keep their rule order.
func (s *Service) ProcessStageAlerts(camera models.CameraRef, timeline []models.StageAlertEvent) models.ProcessedAlerts {
	result := models.ProcessedAlerts{Errors: make([]string, 0)}
	logger := logging.WithCamera(s.logger, camera.ID)

	watermark := s.watermark(camera.ID)
	newest := watermark

	for end := len(timeline); end > 0; {
		start := sampleStart(timeline, end-1)
		for _, event := range timeline[start:end] {
			if event.Code == models.StageAlertNoop || !event.Timestamp.After(watermark) {
				continue
			}
			result.Considered++
			if event.Timestamp.After(newest) {
				newest = event.Timestamp
			}

			key := models.AlertCooldownKey{CameraID: camera.ID, Code: event.Code}
			if !s.CheckCooldown(key, event.Timestamp) {
				result.Suppressed++
				metrics.RecordAlertSuppressed(event.Code)
				logger.Debug().
					Str("code", string(event.Code)).
					Time("event_time", event.Timestamp).
					Msg("Alert blocked by cooldown")
				continue
			}

			if err := s.publish(camera, event, logger); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Alert %s at %s: %v", event.Code, event.Timestamp.Format(time.RFC3339), err))
				continue
			}
			s.UpdateCooldown(key, event.Timestamp)
			result.Published++
		}
		end = start
	}

	s.setWatermark(camera.ID, newest)

	if result.Considered > 0 {
		logger.Debug().
			Int("considered", result.Considered).
			Int("published", result.Published).
			Int("suppressed", result.Suppressed).
			Int("errors", len(result.Errors)).
			Msg("Stage alert processing completed")
	}
	return result
}

// sampleStart finds the first index of the run of events that share the
// sample of timeline[last]
func sampleStart(timeline []models.StageAlertEvent, last int) int {
	start := last
	for start > 0 && sameSample(timeline[start-1], timeline[last]) {
		start--
	}
	return start
}

func sameSample(a, b models.StageAlertEvent) bool {
	return a.SampleID == b.SampleID && a.Timestamp.Equal(b.Timestamp)
}

func (s *Service) publish(camera models.CameraRef, event models.StageAlertEvent, logger zerolog.Logger) error {
	record := alerts.NewRecord(camera, event)
	payload := alerts.BuildStageAlert(record, s.clock.Now())
	subject := alerts.Subject(s.cfg.AlertsSubject, event.Code)

	if err := s.publisher.Publish(subject, payload); err != nil {
		logger.Error().
			Err(err).
			Str("subject", subject).
			Str("code", string(event.Code)).
			Msg("Failed to publish alert")
		return err
	}

	s.alertLog.Append(record)
	metrics.RecordAlertPublished(event.Code)

	logger.Info().
		Str("alert_id", record.AlertID).
		Str("code", string(event.Code)).
		Str("severity", string(event.Severity)).
		Float64("density", event.Density).
		Msg("Alert published")
	return nil
}

// CheckCooldown reports whether an alert at eventTime may be sent for key
func (s *Service) CheckCooldown(key models.AlertCooldownKey, eventTime time.Time) bool {
	s.cooldownMu.RLock()
	defer s.cooldownMu.RUnlock()

	lastSent, exists := s.lastSent[key.String()]
	if !exists {
		return true
	}

	return eventTime.Sub(lastSent) >= s.cooldown
}

// UpdateCooldown records eventTime as the last send for key
func (s *Service) UpdateCooldown(key models.AlertCooldownKey, eventTime time.Time) {
	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()

	if eventTime.After(s.lastSent[key.String()]) {
		s.lastSent[key.String()] = eventTime
	}
}

func (s *Service) watermark(cameraID string) time.Time {
	s.cooldownMu.RLock()
	defer s.cooldownMu.RUnlock()
	return s.watermarks[cameraID]
}

func (s *Service) setWatermark(cameraID string, t time.Time) {
	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()
	if t.After(s.watermarks[cameraID]) {
		s.watermarks[cameraID] = t
	}
}

// RecentAlerts returns the newest logged alerts
func (s *Service) RecentAlerts(limit int) []models.AlertRecord {
	return analytics.RecentAlerts(s.alertLog.Snapshot(), limit)
}

// QueryHistory pages through the alert log
func (s *Service) QueryHistory(query models.AlertHistoryQuery) models.AlertHistoryPage {
	return analytics.QueryAlertHistory(s.alertLog.Snapshot(), query, s.clock.Now())
}

// HistoryError is the reply to a malformed history request
type HistoryError struct {
	Error string `json:"error"`
}

// HandleHistoryRequest decodes a JSON history query and answers it. An empty
// body queries with defaults.
func (s *Service) HandleHistoryRequest(data []byte) interface{} {
	var query models.AlertHistoryQuery
	if len(data) > 0 {
		if err := json.Unmarshal(data, &query); err != nil {
			s.logger.Warn().Err(err).Msg("Invalid alert history request")
			return HistoryError{Error: fmt.Sprintf("invalid history query: %v", err)}
		}
	}
	return s.QueryHistory(query)
}
