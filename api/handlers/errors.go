package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mediafetch/internal/domain"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errorStatus maps an error to its HTTP status and machine-readable code
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, "invalid_payload"
	case errors.Is(err, domain.ErrNoReferences):
		return http.StatusUnprocessableEntity, "no_references"
	case errors.Is(err, domain.ErrNoValidReferences):
		return http.StatusFailedDependency, "no_valid_references"
	case errors.Is(err, domain.ErrNoSubscribers):
		return http.StatusConflict, "no_subscribers"
	case errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound, "job_not_found"
	case errors.Is(err, domain.ErrManagerStopped):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		c.Error(err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
