package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// StoreStats reports the size of the sample store
type StoreStats interface {
	Stats() (cameras, samples int)
}

// AlertCounter reports how many alerts are held in the alert log
type AlertCounter interface {
	Len() int
}

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	WorkerID  string
	startedAt time.Time
	store     StoreStats
	alerts    AlertCounter
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(workerID string, store StoreStats, alerts AlertCounter) *SystemHandler {
	return &SystemHandler{
		WorkerID:  workerID,
		startedAt: time.Now(),
		store:     store,
		alerts:    alerts,
	}
}

type StatsResponse struct {
	WorkerID      string `json:"worker_id"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	MemoryMB      uint64 `json:"memory_mb"`
	CPUCores      int    `json:"cpu_cores"`
	Goroutines    int    `json:"goroutines"`
	GoVersion     string `json:"go_version"`
	Cameras       int    `json:"cameras"`
	Samples       int    `json:"samples"`
	LoggedAlerts  int    `json:"logged_alerts"`
	Timestamp     int64  `json:"timestamp"`
}

// @Summary Get system stats
// @Description Get runtime, sample store and alert log statistics
// @Tags system
// @Accept json
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	resp := StatsResponse{
		WorkerID:      h.WorkerID,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		MemoryMB:      m.Alloc / 1024 / 1024,
		CPUCores:      runtime.NumCPU(),
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		Timestamp:     time.Now().Unix(),
	}
	if h.store != nil {
		resp.Cameras, resp.Samples = h.store.Stats()
	}
	if h.alerts != nil {
		resp.LoggedAlerts = h.alerts.Len()
	}

	c.JSON(http.StatusOK, resp)
}
