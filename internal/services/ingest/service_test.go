package ingest

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepler-congestion-go/internal/config"
	"kepler-congestion-go/internal/models"
	"kepler-congestion-go/internal/services/samplestore"
	"kepler-congestion-go/internal/timeutil"
)

var t0 = time.Date(2025, time.March, 12, 14, 30, 0, 0, time.UTC)

type fakeSubscriber struct {
	subject, queue string
	handler        func([]byte)
	err            error
}

func (f *fakeSubscriber) QueueSubscribe(subject, queue string, handler func([]byte)) (*nats.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subject, f.queue, f.handler = subject, queue, handler
	return &nats.Subscription{}, nil
}

func testConfig() *config.Config {
	return &config.Config{WorkerID: "test", SamplesSubject: "density.samples", SamplesQueue: "workers"}
}

func newTestService(t *testing.T, maxCameras int) (*Service, *samplestore.Store, *fakeSubscriber) {
	t.Helper()
	store := samplestore.NewStore(maxCameras, 24*time.Hour, timeutil.NewMockClock(t0))
	sub := &fakeSubscriber{}
	svc, err := NewService(testConfig(), sub, store)
	require.NoError(t, err)
	return svc, store, sub
}

func encode(t *testing.T, msg models.SampleMessage) []byte {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return data
}

func TestStartSubscribesToQueue(t *testing.T) {
	t.Parallel()

	svc, store, sub := newTestService(t, 10)
	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())

	assert.Equal(t, "density.samples", sub.subject)
	assert.Equal(t, "workers", sub.queue)
	require.NotNil(t, sub.handler)

	velocity := 0.001
	sub.handler(encode(t, models.SampleMessage{
		ID:         1,
		CameraID:   "cam-1",
		CameraName: "North Gate",
		Timestamp:  t0,
		Density:    0.42,
		Velocity:   &velocity,
	}))

	recent := store.Recent("cam-1", 5)
	require.Len(t, recent, 1)
	assert.Equal(t, 0.42, recent[0].Density)
	assert.Equal(t, &velocity, recent[0].VelocityPerSecond)

	cam, ok := store.Camera("cam-1")
	require.True(t, ok)
	assert.Equal(t, "North Gate", cam.Name)
}

func TestStartFailure(t *testing.T) {
	t.Parallel()

	store := samplestore.NewStore(10, time.Hour, timeutil.NewMockClock(t0))
	svc, err := NewService(testConfig(), &fakeSubscriber{err: errors.New("boom")}, store)
	require.NoError(t, err)

	err = svc.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "density.samples")
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewService(testConfig(), nil, nil)
	assert.Error(t, err)
}

func TestHandleMessageDropsBadInput(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t, 1)

	svc.HandleMessage([]byte("{not json"))
	svc.HandleMessage(encode(t, models.SampleMessage{CameraID: "cam-1", Density: 0.3}))
	svc.HandleMessage(encode(t, models.SampleMessage{ID: 1, CameraID: "cam-1", Timestamp: t0, Density: 0.3}))
	// over the camera limit
	svc.HandleMessage(encode(t, models.SampleMessage{ID: 2, CameraID: "cam-2", Timestamp: t0, Density: 0.3}))

	cameras, samples := store.Stats()
	assert.Equal(t, 1, cameras)
	assert.Equal(t, 1, samples)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := models.SampleMessage{CameraID: "cam-1", Timestamp: t0, Density: 0.5, PersonCount: 12}
	nan := math.NaN()

	tests := []struct {
		name   string
		mutate func(*models.SampleMessage)
		ok     bool
	}{
		{"valid", func(*models.SampleMessage) {}, true},
		{"zero density", func(m *models.SampleMessage) { m.Density = 0 }, true},
		{"over capacity", func(m *models.SampleMessage) { m.Density = 1.7 }, true},
		{"missing camera", func(m *models.SampleMessage) { m.CameraID = "" }, false},
		{"missing timestamp", func(m *models.SampleMessage) { m.Timestamp = time.Time{} }, false},
		{"negative density", func(m *models.SampleMessage) { m.Density = -0.1 }, false},
		{"infinite density", func(m *models.SampleMessage) { m.Density = math.Inf(1) }, false},
		{"negative count", func(m *models.SampleMessage) { m.PersonCount = -1 }, false},
		{"nan velocity", func(m *models.SampleMessage) { m.Velocity = &nan }, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := valid
			tt.mutate(&msg)

			err := Validate(msg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSample)
			}
		})
	}
}
