package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/app"
	"github.com/yourusername/mediafetch/internal/domain"
)

// BatchHandler handles batch submission and job status requests
type BatchHandler struct {
	jobs   *app.JobManager
	logger *zap.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(jobs *app.JobManager, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		jobs:   jobs,
		logger: logger,
	}
}

// SubmitBatchRequest represents a batch submission
type SubmitBatchRequest struct {
	References []string              `json:"references"`
	Mode       domain.InvocationMode `json:"mode"`
}

// JobListResponse lists known jobs
type JobListResponse struct {
	Jobs  []*domain.Job `json:"jobs"`
	Count int           `json:"count"`
}

// SubmitBatch handles POST /api/v1/batches
func (h *BatchHandler) SubmitBatch(c *gin.Context) {
	var req SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err))
		return
	}
	if req.Mode == "" {
		req.Mode = domain.ModeAwait
	}

	job, err := h.jobs.Submit(c.Request.Context(), req.References, req.Mode)
	if err != nil {
		if job != nil && c.Request.Context().Err() != nil {
			// Caller went away; the job keeps running
			h.logger.Info("Client left awaited batch", zap.String("job_id", job.ID))
			return
		}
		respondError(c, err)
		return
	}

	h.logger.Info("Batch submitted",
		zap.String("job_id", job.ID),
		zap.String("mode", string(job.Mode)),
		zap.Int("references", len(job.References)),
	)

	c.Header("X-Job-ID", job.ID)
	if job.Mode == domain.ModeDetach {
		c.JSON(http.StatusAccepted, job)
		return
	}

	if job.Status == domain.JobFailed {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: job.ErrorMessage, Code: "batch_failed"})
		return
	}
	c.JSON(http.StatusOK, job.Result)
}

// ListBatches handles GET /api/v1/batches
func (h *BatchHandler) ListBatches(c *gin.Context) {
	jobs := h.jobs.List()
	c.JSON(http.StatusOK, JobListResponse{Jobs: jobs, Count: len(jobs)})
}

// GetBatch handles GET /api/v1/batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	job, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CancelBatch handles POST /api/v1/batches/:id/cancel
func (h *BatchHandler) CancelBatch(c *gin.Context) {
	job, err := h.jobs.Cancel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("Batch cancelled", zap.String("job_id", job.ID))
	c.JSON(http.StatusOK, job)
}
