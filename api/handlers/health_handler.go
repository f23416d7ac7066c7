package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mediafetch/internal/app"
	"github.com/yourusername/mediafetch/internal/events"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	jobs        *app.JobManager
	broadcaster *events.Broadcaster
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(jobs *app.JobManager, broadcaster *events.Broadcaster) *HealthHandler {
	return &HealthHandler{
		jobs:        jobs,
		broadcaster: broadcaster,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	ActiveJobs  int    `json:"active_jobs"`
	Subscribers int    `json:"subscribers"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Version:     Version,
		ActiveJobs:  h.jobs.ActiveCount(),
		Subscribers: h.broadcaster.Count(),
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.jobs.IsAccepting() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "job manager stopped",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
