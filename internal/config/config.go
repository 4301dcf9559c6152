package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// NATS (sample intake and result publishing)
	// Default: nats://localhost:4222 (works with Docker Compose setup)
	// Docker: Use nats://nats:4222 if running worker in Docker
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	NatsDrainTimeout   time.Duration // For graceful shutdown

	// Subjects
	SamplesSubject   string
	SamplesQueue     string // Queue group shared by worker replicas
	SummariesSubject string
	TrendSubject     string
	ReportsSubject   string

	// Alerting via NATS
	AlertsSubject       string
	AlertsCooldown      time.Duration
	AlertLogSize        int
	AlertHistorySubject string // Request/reply subject for alert history queries

	// Evaluation
	EvaluationInterval time.Duration
	EvaluationWorkers  int
	ReportInterval     time.Duration
	SampleWindowSize   int // Samples per camera fed to each summary

	// Sample store
	MaxCameras       int
	HistoryRetention time.Duration

	// Swagger Configuration
	SwaggerHost string
	SwaggerPort int

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "worker-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy (lightweight web log viewer)
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// NATS (configured for Docker Compose setup)
		NatsURL:            getNatsURL(),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		NatsDrainTimeout:   getEnvDuration("NATS_DRAIN_TIMEOUT", 5*time.Second),

		// Subjects
		SamplesSubject:   getEnv("SAMPLES_SUBJECT", "density.samples"),
		SamplesQueue:     getEnv("SAMPLES_QUEUE", "congestion-workers"),
		SummariesSubject: getEnv("SUMMARIES_SUBJECT", "congestion.summaries"),
		TrendSubject:     getEnv("TREND_SUBJECT", "congestion.trend"),
		ReportsSubject:   getEnv("REPORTS_SUBJECT", "congestion.reports"),

		// Alerting via NATS
		AlertsSubject:       getEnv("ALERTS_SUBJECT", "alerts"),
		AlertsCooldown:      getEnvDuration("ALERTS_COOLDOWN", 10*time.Second),
		AlertLogSize:        getEnvInt("ALERT_LOG_SIZE", 5000),
		AlertHistorySubject: getEnv("ALERT_HISTORY_SUBJECT", "congestion.alerts.history"),

		// Evaluation
		EvaluationInterval: getEnvDuration("EVALUATION_INTERVAL", 5*time.Second),
		EvaluationWorkers:  getEnvInt("EVALUATION_WORKERS", 4),
		ReportInterval:     getEnvDuration("REPORT_INTERVAL", time.Minute),
		SampleWindowSize:   getEnvInt("SAMPLE_WINDOW_SIZE", 60),

		// Sample store (four weeks of baseline plus a day of slack)
		MaxCameras:       getEnvInt("MAX_CAMERAS", 100),
		HistoryRetention: getEnvDuration("HISTORY_RETENTION", 29*24*time.Hour),

		// Swagger Configuration
		SwaggerHost: getEnv("SWAGGER_HOST", "localhost"),
		SwaggerPort: getEnvInt("SWAGGER_PORT", 8000),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// Validate rejects settings the worker cannot run with
func (c *Config) Validate() error {
	var errs []error

	positiveDurations := map[string]time.Duration{
		"EVALUATION_INTERVAL": c.EvaluationInterval,
		"REPORT_INTERVAL":     c.ReportInterval,
		"HISTORY_RETENTION":   c.HistoryRetention,
		"SHUTDOWN_TIMEOUT":    c.ShutdownTimeout,
	}
	for key, value := range positiveDurations {
		if value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", key, value))
		}
	}

	positiveInts := map[string]int{
		"EVALUATION_WORKERS": c.EvaluationWorkers,
		"SAMPLE_WINDOW_SIZE": c.SampleWindowSize,
		"ALERT_LOG_SIZE":     c.AlertLogSize,
		"MAX_CAMERAS":        c.MaxCameras,
		"PORT":               c.Port,
	}
	for key, value := range positiveInts {
		if value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", key, value))
		}
	}

	if c.AlertsCooldown < 0 {
		errs = append(errs, fmt.Errorf("ALERTS_COOLDOWN must not be negative, got %s", c.AlertsCooldown))
	}
	if c.SamplesSubject == "" || c.AlertsSubject == "" {
		errs = append(errs, errors.New("SAMPLES_SUBJECT and ALERTS_SUBJECT are required"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}

	if isRunningInDocker() {
		return "nats://nats:4222"
	}

	return "nats://localhost:4222"
}
