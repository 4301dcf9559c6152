package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kepler-congestion-go/internal/config"
)

// NewServiceLogger tags the global logger with the worker and service name
func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("worker_id", cfg.WorkerID).Str("service", service).Logger()
}

func WithCamera(base zerolog.Logger, cameraID string) zerolog.Logger {
	return base.With().Str("camera_id", cameraID).Logger()
}

// ParseLevel falls back to info for unknown level names
func ParseLevel(name string) (zerolog.Level, bool) {
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel, false
	}
	return level, true
}
