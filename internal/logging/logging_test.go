package logging

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepler-congestion-go/internal/config"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewServiceLogger(t *testing.T) {
	buf := captureGlobal(t)

	logger := NewServiceLogger(&config.Config{WorkerID: "worker-7"}, "evaluation")
	cameraLogger := WithCamera(logger, "cam-1")
	cameraLogger.Info().Msg("evaluated")

	entry := decodeLine(t, buf)
	assert.Equal(t, "worker-7", entry["worker_id"])
	assert.Equal(t, "evaluation", entry["service"])
	assert.Equal(t, "cam-1", entry["camera_id"])
}

func TestGinContextFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureGlobal(t)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/health", nil)
	c.Set(KeyRequestID, "req-1")
	c.Set(KeyStartTime, time.Now().Add(-time.Second))

	Info(c).Msg("served")

	entry := decodeLine(t, buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/health", entry["path"])
	assert.Contains(t, entry, "duration")
}

func TestNilGinContext(t *testing.T) {
	buf := captureGlobal(t)

	Warn(nil).Msg("no request")

	entry := decodeLine(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.NotContains(t, entry, "request_id")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, ok := ParseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, zerolog.DebugLevel, level)

	level, ok = ParseLevel("loud")
	assert.False(t, ok)
	assert.Equal(t, zerolog.InfoLevel, level)
}

func TestStartLogdyDisabled(t *testing.T) {
	t.Parallel()

	w, url, err := StartLogdy(&config.Config{LogdyEnabled: false})
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.Empty(t, url)
}
