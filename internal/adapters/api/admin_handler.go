package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"weathersub.app/internal/core/notification"
	"weathersub.app/internal/core/subscription"
	"weathersub.app/pkg/errors"
)

// defaultAdminRunTimeout bounds a manual run when ServerConfig.AdminRunTimeout is unset
const defaultAdminRunTimeout = 15 * time.Minute

// BatchResponse summarizes a completed batch run
type BatchResponse struct {
	RunID      string           `json:"runId"`
	Frequency  string           `json:"frequency"`
	Recipients int              `json:"recipients"`
	Sent       int              `json:"sent"`
	Failures   []FailedDelivery `json:"failures"`
	DurationMS int64            `json:"durationMs"`
}

// FailedDelivery describes one recipient the run could not reach
type FailedDelivery struct {
	SubscriptionID uint   `json:"subscriptionId"`
	City           string `json:"city"`
	Error          string `json:"error"`
}

// triggerBatch handles POST /api/admin/notify/:frequency requests
func (s *HTTPServerAdapter) triggerBatch(c *gin.Context) {
	frequency := subscription.FrequencyFromString(c.Param("frequency"))
	if !frequency.IsValid() {
		s.handleError(c, errors.NewValidationError("frequency must be hourly or daily"))
		return
	}

	// The run outlives the request: a disconnecting client or the server write
	// timeout must not cancel deliveries that have not finished yet.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), s.adminRunTimeout())
	defer cancel()

	result, err := s.batchTrigger.RunNow(ctx, frequency)
	if err != nil {
		s.handleError(c, err)
		return
	}

	slog.Info("Manual batch run finished", "runID", result.RunID, "frequency", frequency.String(), "sent", result.Sent())
	c.JSON(http.StatusOK, toBatchResponse(result))
}

func (s *HTTPServerAdapter) adminRunTimeout() time.Duration {
	if s.config.AdminRunTimeout > 0 {
		return s.config.AdminRunTimeout
	}
	return defaultAdminRunTimeout
}

func toBatchResponse(result *notification.BatchResult) BatchResponse {
	failures := result.Failures()
	response := BatchResponse{
		RunID:      result.RunID,
		Frequency:  result.Frequency.String(),
		Recipients: len(result.Deliveries),
		Sent:       result.Sent(),
		Failures:   make([]FailedDelivery, 0, len(failures)),
		DurationMS: result.Duration().Milliseconds(),
	}
	for _, failure := range failures {
		response.Failures = append(response.Failures, FailedDelivery{
			SubscriptionID: failure.SubscriptionID,
			City:           failure.City,
			Error:          failure.Err.Error(),
		})
	}
	return response
}
