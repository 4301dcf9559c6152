// Package evaluation runs the periodic congestion evaluation over every
// registered camera and publishes the results.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"kepler-congestion-go/internal/analytics"
	"kepler-congestion-go/internal/config"
	"kepler-congestion-go/internal/logging"
	"kepler-congestion-go/internal/metrics"
	"kepler-congestion-go/internal/models"
	"kepler-congestion-go/internal/services/postprocessing"
	"kepler-congestion-go/internal/timeutil"
)

const (
	recentAlertsInReport = 10
	recentEventsWindow   = 24 * time.Hour
)

// SampleSource is the read side of the sample store
type SampleSource interface {
	Cameras() []models.Camera
	Recent(cameraID string, n int) models.DensitySeries
	History(cameraID string, since time.Time) []models.DensitySample
}

// CycleResult describes one evaluation cycle
type CycleResult struct {
	EvaluatedAt time.Time
	Cameras     int
	Published   int
	Dropped     int
	Alerts      models.ProcessedAlerts
	Report      bool
}

// cameraResult pairs a camera's evaluation with its full alert timeline, which
// unlike Summary.StageAlerts is not cut to the display limit
type cameraResult struct {
	evaluation models.CameraEvaluation
	timeline   []models.StageAlertEvent
}

type Service struct {
	cfg       *config.Config
	store     SampleSource
	alerts    *postprocessing.Service
	publisher models.MessagePublisher
	clock     timeutil.Clock
	logger    zerolog.Logger

	// serialises cycles so results are published in evaluation order
	cycleMu    sync.Mutex
	lastReport time.Time

	mu     sync.RWMutex
	latest map[string]models.CameraEvaluation

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewService(cfg *config.Config, store SampleSource, alerts *postprocessing.Service, publisher models.MessagePublisher, clock timeutil.Clock) (*Service, error) {
	if store == nil || alerts == nil || publisher == nil {
		return nil, errors.New("sample source, alert processor and publisher are required")
	}
	if cfg.EvaluationInterval <= 0 {
		return nil, fmt.Errorf("evaluation interval must be positive, got %s", cfg.EvaluationInterval)
	}

	return &Service{
		cfg:       cfg,
		store:     store,
		alerts:    alerts,
		publisher: publisher,
		clock:     clock,
		logger:    logging.NewServiceLogger(cfg, "evaluation"),
		latest:    make(map[string]models.CameraEvaluation),
	}, nil
}

// Start runs a cycle on every tick of EVALUATION_INTERVAL until ctx is done or Stop is called
func (s *Service) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.cancel != nil {
		return errors.New("evaluation already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	ticker := s.clock.NewTicker(s.cfg.EvaluationInterval)
	go s.loop(ctx, ticker, s.done)

	s.logger.Info().
		Dur("interval", s.cfg.EvaluationInterval).
		Dur("report_interval", s.cfg.ReportInterval).
		Int("workers", s.cfg.EvaluationWorkers).
		Msg("Evaluation loop started")
	return nil
}

// Stop ends the loop and waits for a running cycle to finish
func (s *Service) Stop() {
	s.lifecycleMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info().Msg("Evaluation loop stopped")
}

// Shutdown adapts Stop to the container's shutdown signature
func (s *Service) Shutdown(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop evaluation: %w", ctx.Err())
	}
}

func (s *Service) loop(ctx context.Context, ticker timeutil.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			result, err := s.RunCycle(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Error().Err(err).Msg("Evaluation cycle failed")
				}
				continue
			}
			s.logger.Debug().
				Int("cameras", result.Cameras).
				Int("published", result.Published).
				Int("dropped", result.Dropped).
				Int("alerts", result.Alerts.Published).
				Bool("report", result.Report).
				Msg("Evaluation cycle completed")
		}
	}
}

// RunCycle evaluates every camera in parallel, then publishes summaries,
// alerts, the hourly trend and, when due, the periodic report.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	start := time.Now()
	now := s.clock.Now()
	cameras := s.store.Cameras()
	result := CycleResult{EvaluatedAt: now, Cameras: len(cameras), Alerts: models.ProcessedAlerts{Errors: make([]string, 0)}}

	results := make([]cameraResult, len(cameras))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.EvaluationWorkers))
	for i, camera := range cameras {
		i, camera := i, camera
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.evaluate(camera, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, fmt.Errorf("evaluate cameras: %w", err)
	}

	levels := make(map[models.CongestionLevel]int)
	var cycleAlerts []models.StageAlertEvent
	for i, cr := range results {
		evaluation := cr.evaluation
		levels[evaluation.Summary.Level]++
		cycleAlerts = append(cycleAlerts, cr.timeline...)

		if !s.accept(evaluation) {
			result.Dropped++
			continue
		}

		processed := s.alerts.ProcessStageAlerts(cameras[i].Ref(), cr.timeline)
		result.Alerts.Considered += processed.Considered
		result.Alerts.Published += processed.Published
		result.Alerts.Suppressed += processed.Suppressed
		result.Alerts.Errors = append(result.Alerts.Errors, processed.Errors...)

		if err := s.publisher.Publish(s.cfg.SummariesSubject, evaluation); err != nil {
			logger := logging.WithCamera(s.logger, evaluation.Summary.CameraID)
			logger.Error().Err(err).Msg("Failed to publish summary")
			continue
		}
		result.Published++
	}

	trend := s.Trend(now, cycleAlerts)
	if err := s.publisher.Publish(s.cfg.TrendSubject, trend); err != nil {
		s.logger.Error().Err(err).Msg("Failed to publish alert trend")
	}

	if s.reportDue(now) {
		report := s.BuildReport(now)
		if err := s.publisher.Publish(s.cfg.ReportsSubject, report); err != nil {
			s.logger.Error().Err(err).Msg("Failed to publish analytics report")
		} else {
			s.lastReport = now
			result.Report = true
		}
	}

	metrics.RecordEvaluation(time.Since(start), levels)
	return result, nil
}

// Evaluate computes the summary, anomaly and comparison of one camera at now
func (s *Service) Evaluate(camera models.Camera, now time.Time) models.CameraEvaluation {
	return s.evaluate(camera, now).evaluation
}

func (s *Service) evaluate(camera models.Camera, now time.Time) cameraResult {
	series := analytics.NormalizeSeries(s.store.Recent(camera.ID, s.cfg.SampleWindowSize))
	summary := analytics.Summarize(camera.Ref(), series, now)
	history := s.store.History(camera.ID, now.Add(-analytics.BaselineHistory))

	anomaly := analytics.DetectAnomaly(nil, nil)
	if newest, ok := series.Newest(); ok {
		anomaly = analytics.DetectSampleAnomaly(newest, history)
	}

	return cameraResult{
		evaluation: models.CameraEvaluation{
			Summary:    summary,
			Anomaly:    anomaly,
			Comparison: analytics.CompareWithHistory(history, now),
		},
		timeline: analytics.StageAlertTimeline(series),
	}
}

// accept records evaluation as the latest for its camera unless an equal or
// newer one was already published
func (s *Service) accept(evaluation models.CameraEvaluation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := evaluation.Summary.CameraID
	if previous, ok := s.latest[id]; ok && !evaluation.Summary.EvaluatedAt.After(previous.Summary.EvaluatedAt) {
		return false
	}
	s.latest[id] = evaluation
	return true
}

// Trend counts published alerts over the trend window, falling back to the
// stage alerts of the current cycle when none were published
func (s *Service) Trend(now time.Time, cycleAlerts []models.StageAlertEvent) models.AlertTrend {
	timestamps := s.alerts.AlertLog().Timestamps(analytics.TrendCutoff(now))
	if len(timestamps) > 0 {
		return analytics.BuildTrend(timestamps, now)
	}
	return analytics.BuildTrendFromStageAlerts(cycleAlerts, now)
}

func (s *Service) reportDue(now time.Time) bool {
	return s.lastReport.IsZero() || now.Sub(s.lastReport) >= s.cfg.ReportInterval
}

// BuildReport assembles the periodic report over all cameras
func (s *Service) BuildReport(now time.Time) models.AnalyticsReport {
	cameras := s.store.Cameras()
	since := now.AddDate(0, 0, -analytics.HeatmapDays)

	report := models.AnalyticsReport{
		GeneratedAt: now,
		Statistics:  make([]models.CameraStatistics, 0, len(cameras)),
		Heatmaps:    make(map[string][]models.HeatmapDay, len(cameras)),
		Recent:      s.alerts.RecentAlerts(recentAlertsInReport),
	}

	for _, camera := range cameras {
		samples := s.store.History(camera.ID, since)
		if stats, ok := analytics.ComputeCameraStatistics(camera.Ref(), samples); ok {
			report.Statistics = append(report.Statistics, stats)
		}
		report.Heatmaps[camera.ID] = analytics.BuildHeatmap(samples, now)
	}

	recentEvents := int64(len(s.alerts.AlertLog().Timestamps(now.Add(-recentEventsWindow))))
	report.Dashboard = analytics.BuildDashboardSummary(len(cameras), s.LatestSummaries(), recentEvents)
	return report
}

// LatestSummaries returns the last published summary of every camera, ordered by camera ID
func (s *Service) LatestSummaries() []models.CameraAnalyticsSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]models.CameraAnalyticsSummary, 0, len(s.latest))
	for _, evaluation := range s.latest {
		summaries = append(summaries, evaluation.Summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CameraID < summaries[j].CameraID
	})
	return summaries
}

// LatestEvaluation returns the last published evaluation of a camera
func (s *Service) LatestEvaluation(cameraID string) (models.CameraEvaluation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evaluation, ok := s.latest[cameraID]
	return evaluation, ok
}
