// Package ingest consumes density samples from NATS into the sample store.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"kepler-congestion-go/internal/config"
	"kepler-congestion-go/internal/logging"
	"kepler-congestion-go/internal/metrics"
	"kepler-congestion-go/internal/models"
)

// ErrInvalidSample marks a message that decoded but cannot be used
var ErrInvalidSample = errors.New("invalid sample")

// Subscriber is the part of the messaging service intake needs
type Subscriber interface {
	QueueSubscribe(subject, queue string, handler func([]byte)) (*nats.Subscription, error)
}

// SampleSink stores decoded samples
type SampleSink interface {
	Upsert(camera models.Camera) (models.Camera, error)
	Add(sample models.DensitySample) (bool, error)
}

type Service struct {
	cfg    *config.Config
	sub    Subscriber
	sink   SampleSink
	logger zerolog.Logger

	mu           sync.Mutex
	subscription *nats.Subscription
}

func NewService(cfg *config.Config, sub Subscriber, sink SampleSink) (*Service, error) {
	if sub == nil || sink == nil {
		return nil, fmt.Errorf("subscriber and sample sink are required")
	}
	return &Service{
		cfg:    cfg,
		sub:    sub,
		sink:   sink,
		logger: logging.NewServiceLogger(cfg, "ingest"),
	}, nil
}

// Start joins the samples queue group
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscription != nil {
		return nil
	}

	subscription, err := s.sub.QueueSubscribe(s.cfg.SamplesSubject, s.cfg.SamplesQueue, s.HandleMessage)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.cfg.SamplesSubject, err)
	}
	s.subscription = subscription

	s.logger.Info().
		Str("subject", s.cfg.SamplesSubject).
		Str("queue", s.cfg.SamplesQueue).
		Msg("Sample intake started")
	return nil
}

// Stop leaves the queue group. Pending messages are drained by the messaging service.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscription == nil {
		return nil
	}
	err := s.subscription.Unsubscribe()
	s.subscription = nil
	return err
}

// HandleMessage decodes, validates and stores one sample message.
// Bad messages are logged and counted, never returned.
func (s *Service) HandleMessage(data []byte) {
	var msg models.SampleMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.RecordSampleRejected(metrics.RejectDecode)
		s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("Dropping undecodable sample message")
		return
	}

	if err := Validate(msg); err != nil {
		metrics.RecordSampleRejected(metrics.RejectValidation)
		s.logger.Warn().Err(err).Str("camera_id", msg.CameraID).Int64("sample_id", msg.ID).Msg("Dropping invalid sample")
		return
	}

	if err := s.store(msg); err != nil {
		metrics.RecordSampleRejected(metrics.RejectStore)
		s.logger.Error().Err(err).Str("camera_id", msg.CameraID).Msg("Failed to store sample")
		return
	}
}

func (s *Service) store(msg models.SampleMessage) error {
	if _, err := s.sink.Upsert(msg.Camera()); err != nil {
		return err
	}
	added, err := s.sink.Add(msg.Sample())
	if err != nil {
		return err
	}
	if added {
		metrics.RecordSampleIngested()
	} else {
		logger := logging.WithCamera(s.logger, msg.CameraID)
		logger.Debug().Int64("sample_id", msg.ID).Msg("Duplicate sample ignored")
	}
	return nil
}

// Validate checks the fields the engine relies on
func Validate(msg models.SampleMessage) error {
	switch {
	case msg.CameraID == "":
		return fmt.Errorf("%w: camera_id is required", ErrInvalidSample)
	case msg.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp is required", ErrInvalidSample)
	case math.IsNaN(msg.Density) || math.IsInf(msg.Density, 0):
		return fmt.Errorf("%w: density must be finite", ErrInvalidSample)
	case msg.Density < 0:
		return fmt.Errorf("%w: density must not be negative, got %v", ErrInvalidSample, msg.Density)
	case msg.PersonCount < 0:
		return fmt.Errorf("%w: person_count must not be negative, got %d", ErrInvalidSample, msg.PersonCount)
	case !finiteOrNil(msg.Velocity) || !finiteOrNil(msg.Acceleration):
		return fmt.Errorf("%w: density derivatives must be finite", ErrInvalidSample)
	}
	return nil
}

func finiteOrNil(v *float64) bool {
	return v == nil || !(math.IsNaN(*v) || math.IsInf(*v, 0))
}
