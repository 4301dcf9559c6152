package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"kepler-congestion-go/internal/config"
	"kepler-congestion-go/internal/services/evaluation"
	"kepler-congestion-go/internal/services/ingest"
	"kepler-congestion-go/internal/services/messaging"
	"kepler-congestion-go/internal/services/postprocessing"
	"kepler-congestion-go/internal/services/samplestore"
	"kepler-congestion-go/internal/timeutil"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config         *config.Config
	Messaging      *messaging.Service
	Store          *samplestore.Store
	PostProcessing *postprocessing.Service
	Evaluation     *evaluation.Service
	Ingest         *ingest.Service

	historySub *nats.Subscription
}

// NewServiceContainer connects to NATS and builds the pipeline on top of it
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	clock := timeutil.RealClock{}

	messagingSvc, err := messaging.NewService(cfg)
	if err != nil {
		return nil, err
	}

	store := samplestore.NewStore(cfg.MaxCameras, cfg.HistoryRetention, clock)

	postSvc, err := postprocessing.NewService(cfg, messagingSvc, clock)
	if err != nil {
		messagingSvc.Shutdown(context.Background())
		return nil, fmt.Errorf("create post-processing service: %w", err)
	}

	evaluationSvc, err := evaluation.NewService(cfg, store, postSvc, messagingSvc, clock)
	if err != nil {
		messagingSvc.Shutdown(context.Background())
		return nil, fmt.Errorf("create evaluation service: %w", err)
	}

	ingestSvc, err := ingest.NewService(cfg, messagingSvc, store)
	if err != nil {
		messagingSvc.Shutdown(context.Background())
		return nil, fmt.Errorf("create ingest service: %w", err)
	}

	return &ServiceContainer{
		Config:         cfg,
		Messaging:      messagingSvc,
		Store:          store,
		PostProcessing: postSvc,
		Evaluation:     evaluationSvc,
		Ingest:         ingestSvc,
	}, nil
}

// Start begins sample intake, the alert history responder and the evaluation loop
func (sc *ServiceContainer) Start(ctx context.Context) error {
	if err := sc.Ingest.Start(); err != nil {
		return err
	}

	sub, err := sc.Messaging.Respond(sc.Config.AlertHistorySubject, sc.PostProcessing.HandleHistoryRequest)
	if err != nil {
		return fmt.Errorf("serve alert history on %s: %w", sc.Config.AlertHistorySubject, err)
	}
	sc.historySub = sub

	if err := sc.Evaluation.Start(ctx); err != nil {
		return err
	}

	log.Info().
		Str("samples_subject", sc.Config.SamplesSubject).
		Str("history_subject", sc.Config.AlertHistorySubject).
		Msg("Congestion pipeline started")
	return nil
}

// Shutdown gracefully shuts down all services, intake first and NATS last
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	var errs []error

	if sc.Ingest != nil {
		if err := sc.Ingest.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop ingest: %w", err))
		}
	}

	if sc.historySub != nil {
		if err := sc.historySub.Unsubscribe(); err != nil {
			errs = append(errs, fmt.Errorf("stop alert history responder: %w", err))
		}
		sc.historySub = nil
	}

	if sc.Evaluation != nil {
		if err := sc.Evaluation.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if sc.PostProcessing != nil {
		if err := sc.PostProcessing.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if sc.Messaging != nil {
		if err := sc.Messaging.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
