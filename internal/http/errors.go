package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"finance-tracker/internal/service"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		message = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}

func (h *Handler) badBody(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_failed",
		Message: "malformed request body: " + err.Error(),
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, service.ErrDuplicateEmail):
		return http.StatusConflict, "duplicate_email"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusUnauthorized, "insufficient_funds"
	case errors.Is(err, service.ErrArchiveDisabled):
		return http.StatusServiceUnavailable, "archive_disabled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
