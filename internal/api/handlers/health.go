package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ConnectionStatus reports the state of the NATS connection
type ConnectionStatus interface {
	IsConnected() bool
	Status() string
}

type HealthHandler struct {
	WorkerID string
	Version  string
	nats     ConnectionStatus
}

func NewHealthHandler(workerID, version string, nats ConnectionStatus) *HealthHandler {
	return &HealthHandler{WorkerID: workerID, Version: version, nats: nats}
}

type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	WorkerID string `json:"worker_id" example:"worker-1"`
	Nats     string `json:"nats" example:"CONNECTED"`
}

type WorkerInfoResponse struct {
	WorkerID     string   `json:"worker_id" example:"worker-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Report whether the worker is connected to NATS
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.nats == nil || !h.nats.IsConnected() {
		status := "DISCONNECTED"
		if h.nats != nil {
			status = h.nats.Status()
		}
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:   "degraded",
			WorkerID: h.WorkerID,
			Nats:     status,
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		WorkerID: h.WorkerID,
		Nats:     h.nats.Status(),
	})
}

// @Summary Worker information
// @Description Get basic worker information and capabilities
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router / [get]
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID: h.WorkerID,
		Status:   "running",
		Version:  h.Version,
		Capabilities: []string{
			"density_intake",
			"congestion_evaluation",
			"stage_alerts",
			"analytics_reports",
			"alert_history",
		},
	})
}
