package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"kepler-congestion-go/internal/api/handlers"
	"kepler-congestion-go/internal/api/middleware"
	"kepler-congestion-go/internal/config"
)

// Dependencies are the services the HTTP surface reports on
type Dependencies struct {
	Nats   handlers.ConnectionStatus
	Store  handlers.StoreStats
	Alerts handlers.AlertCounter
}

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler *handlers.HealthHandler
	systemHandler *handlers.SystemHandler
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:        cfg,
		router:        gin.New(),
		healthHandler: handlers.NewHealthHandler(cfg.WorkerID, cfg.Version, deps.Nats),
		systemHandler: handlers.NewSystemHandler(cfg.WorkerID, deps.Store, deps.Alerts),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestContext())
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting Kepler Congestion API")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping Kepler Congestion API")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for in-process requests
func (s *Server) Handler() http.Handler {
	return s.router
}
