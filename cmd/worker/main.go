package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kepler-congestion-go/internal/api"
	"kepler-congestion-go/internal/config"
	"kepler-congestion-go/internal/logging"
	"kepler-congestion-go/internal/services"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = time.RFC3339
	console := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = log.Output(console)

	// Load configuration
	cfg := config.Load()

	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
	}
	zerolog.SetGlobalLevel(level)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logdyWriter, _, err := logging.StartLogdy(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Logdy UI disabled")
	} else if logdyWriter != nil {
		log.Logger = log.Output(zerolog.MultiLevelWriter(console, logdyWriter))
	}

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("nats_url", cfg.NatsURL).
		Dur("evaluation_interval", cfg.EvaluationInterval).
		Msg("Starting Kepler Congestion worker")

	container, err := services.NewServiceContainer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create services")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := container.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to start congestion pipeline")
		shutdown(cfg, nil, container)
		os.Exit(1)
	}

	api.ConfigureSwagger(cfg)
	server := api.NewServer(cfg, api.Dependencies{
		Nats:   container.Messaging,
		Store:  container.Store,
		Alerts: container.PostProcessing.AlertLog(),
	})

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("API server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	shutdown(cfg, server, container)
}

func shutdown(cfg *config.Config, server *api.Server, container *services.ServiceContainer) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}

	if err := container.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Services did not shut down cleanly")
		return
	}
	log.Info().Msg("Shutdown complete")
}
