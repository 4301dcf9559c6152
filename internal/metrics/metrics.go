// Package metrics holds the Prometheus collectors of the congestion worker.
//
// Collectors register with the default registry through promauto and are
// served by the API at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"kepler-congestion-go/internal/models"
)

// Rejection reasons for samples that fail intake
const (
	RejectDecode     = "decode"
	RejectValidation = "validation"
	RejectStore      = "store"
)

var (
	// SamplesIngestedTotal counts samples accepted into the store.
	SamplesIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "congestion_samples_ingested_total",
			Help: "Total number of density samples accepted",
		},
	)

	// SamplesRejectedTotal counts samples dropped at intake by reason.
	SamplesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "congestion_samples_rejected_total",
			Help: "Total number of density samples rejected",
		},
		[]string{"reason"},
	)

	// EvaluationsTotal counts completed evaluation cycles.
	EvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "congestion_evaluations_total",
			Help: "Total number of evaluation cycles run",
		},
	)

	// EvaluationDuration tracks how long one evaluation cycle takes.
	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "congestion_evaluation_duration_seconds",
			Help:    "Duration of evaluation cycles in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// CamerasByLevel is the number of cameras at each congestion level after the last cycle.
	CamerasByLevel = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "congestion_cameras",
			Help: "Number of cameras per congestion level",
		},
		[]string{"level"},
	)

	// AlertsPublishedTotal counts stage alerts published, by code.
	AlertsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "congestion_alerts_published_total",
			Help: "Total number of stage alerts published",
		},
		[]string{"code"},
	)

	// AlertsSuppressedTotal counts stage alerts held back by cooldown, by code.
	AlertsSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "congestion_alerts_suppressed_total",
			Help: "Total number of stage alerts blocked by cooldown",
		},
		[]string{"code"},
	)
)

func RecordSampleIngested() {
	SamplesIngestedTotal.Inc()
}

func RecordSampleRejected(reason string) {
	SamplesRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordEvaluation records one finished cycle and the level distribution it produced.
func RecordEvaluation(duration time.Duration, levels map[models.CongestionLevel]int) {
	EvaluationsTotal.Inc()
	EvaluationDuration.Observe(duration.Seconds())
	for _, level := range models.CongestionLevels() {
		CamerasByLevel.WithLabelValues(string(level)).Set(float64(levels[level]))
	}
}

func RecordAlertPublished(code models.StageAlertCode) {
	AlertsPublishedTotal.WithLabelValues(string(code)).Inc()
}

func RecordAlertSuppressed(code models.StageAlertCode) {
	AlertsSuppressedTotal.WithLabelValues(string(code)).Inc()
}
