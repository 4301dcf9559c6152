package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"kepler-congestion-go/internal/config"
)

// ErrNotConnected is returned when the service has no NATS connection
var ErrNotConnected = errors.New("nats connection not established")

type Service struct {
	conn *nats.Conn
	cfg  *config.Config
}

func NewService(cfg *config.Config) (*Service, error) {
	opts := []nats.Option{
		nats.Name("kepler-congestion-" + cfg.WorkerID),
		nats.Timeout(cfg.NatsConnectTimeout),
		nats.ReconnectWait(cfg.NatsReconnectWait),
		nats.MaxReconnects(cfg.NatsMaxReconnects),
		nats.DrainTimeout(cfg.NatsDrainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", cfg.NatsURL, err)
	}

	log.Info().Str("url", cfg.NatsURL).Msg("NATS connection established")

	return &Service{
		conn: conn,
		cfg:  cfg,
	}, nil
}

// Publish sends data as JSON
func (s *Service) Publish(subject string, data interface{}) error {
	if s.conn == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode message for %s: %w", subject, err)
	}

	return s.conn.Publish(subject, payload)
}

func (s *Service) Subscribe(subject string, handler func([]byte)) (*nats.Subscription, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// QueueSubscribe delivers each message to one member of the queue group
func (s *Service) QueueSubscribe(subject, queue string, handler func([]byte)) (*nats.Subscription, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// Respond answers requests on subject with the JSON encoding of whatever handler returns
func (s *Service) Respond(subject string, handler func([]byte) interface{}) (*nats.Subscription, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.conn.Subscribe(subject, func(msg *nats.Msg) {
		if msg.Reply == "" {
			return
		}
		payload, err := json.Marshal(handler(msg.Data))
		if err != nil {
			log.Error().Err(err).Str("subject", subject).Msg("Failed to encode reply")
			return
		}
		if err := msg.Respond(payload); err != nil {
			log.Warn().Err(err).Str("subject", subject).Msg("Failed to send reply")
		}
	})
}

func (s *Service) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

// Status is the connection state as reported by nats.go
func (s *Service) Status() string {
	if s.conn == nil {
		return "DISCONNECTED"
	}
	return s.conn.Status().String()
}

// Shutdown drains pending messages, bounded by NATS_DRAIN_TIMEOUT and ctx
func (s *Service) Shutdown(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}

	closed := make(chan struct{})
	s.conn.SetClosedHandler(func(*nats.Conn) { close(closed) })

	if err := s.conn.Drain(); err != nil {
		log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
		s.conn.Close()
		return nil
	}

	select {
	case <-closed:
		log.Info().Msg("NATS connection drained")
	case <-ctx.Done():
		log.Warn().Msg("NATS drain interrupted, closing immediately")
		s.conn.Close()
	}
	return nil
}
