package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepler-congestion-go/internal/config"
)

func TestNewServiceUnreachable(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		WorkerID:           "test",
		NatsURL:            "nats://127.0.0.1:1",
		NatsConnectTimeout: 200 * time.Millisecond,
		NatsReconnectWait:  10 * time.Millisecond,
		NatsMaxReconnects:  0,
		NatsDrainTimeout:   time.Second,
	}

	svc, err := NewService(cfg)
	require.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "nats://127.0.0.1:1")
}

func TestServiceWithoutConnection(t *testing.T) {
	t.Parallel()

	svc := &Service{}

	assert.False(t, svc.IsConnected())
	assert.Equal(t, "DISCONNECTED", svc.Status())
	assert.ErrorIs(t, svc.Publish("subject", map[string]int{"a": 1}), ErrNotConnected)

	_, err := svc.QueueSubscribe("subject", "queue", func([]byte) {})
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = svc.Subscribe("subject", func([]byte) {})
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = svc.Respond("subject", func([]byte) interface{} { return nil })
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.NoError(t, svc.Shutdown(context.Background()))
}
