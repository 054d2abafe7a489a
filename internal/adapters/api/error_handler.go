package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	errorspkg "weathersub.app/pkg/errors"
)

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleError maps application errors to HTTP status codes. Client errors carry the
// application message; server errors get a fixed message so internals do not leak.
func (s *HTTPServerAdapter) handleError(c *gin.Context, err error) {
	var appErr *errorspkg.AppError
	if !errors.As(err, &appErr) {
		slog.Error("Unclassified error", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	statusCode, message := statusFor(errorspkg.TypeOf(err), appErr.Message)
	if statusCode >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "path", c.FullPath(), "status", statusCode)
	}

	c.JSON(statusCode, ErrorResponse{Error: message})
}

func statusFor(errType errorspkg.ErrorType, message string) (int, string) {
	switch errType {
	case errorspkg.ErrorTypeValidation, errorspkg.ErrorTypeAlreadyConfirmed:
		return http.StatusBadRequest, message
	case errorspkg.ErrorTypeNotFound, errorspkg.ErrorTypeTokenNotFound,
		errorspkg.ErrorTypeInvalidToken, errorspkg.ErrorTypeCityNotFound:
		return http.StatusNotFound, message
	case errorspkg.ErrorTypeAlreadySubscribed, errorspkg.ErrorTypeAlreadyExists:
		return http.StatusConflict, message
	case errorspkg.ErrorTypeLookup:
		return http.StatusServiceUnavailable, "Weather service unavailable"
	case errorspkg.ErrorTypeEmail, errorspkg.ErrorTypeNotificationFailed:
		return http.StatusServiceUnavailable, "Unable to send email"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
