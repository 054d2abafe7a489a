package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"weathersub.app/internal/core/subscription"
	"weathersub.app/pkg/errors"
)

// SubscriptionRequest represents the HTTP request for creating a subscription
type SubscriptionRequest struct {
	Email     string `json:"email" form:"email" binding:"required,email"`
	City      string `json:"city" form:"city" binding:"required"`
	Frequency string `json:"frequency" form:"frequency" binding:"required,frequency"`
}

// SuccessResponse represents a successful HTTP response
type SuccessResponse struct {
	Message string `json:"message"`
}

// SubscribeResponse is returned by a successful subscribe
type SubscribeResponse struct {
	Message          string `json:"message"`
	UnsubscribeToken string `json:"unsubscribeToken"`
}

// StatusResponse reports whether a subscription is confirmed
type StatusResponse struct {
	Email     string `json:"email"`
	Confirmed bool   `json:"confirmed"`
}

// subscribe handles POST /api/subscribe requests
func (s *HTTPServerAdapter) subscribe(c *gin.Context) {
	var httpReq SubscriptionRequest
	if err := c.ShouldBind(&httpReq); err != nil {
		slog.Debug("Request binding error", "error", err)
		s.handleError(c, errors.NewValidationError("Invalid request format"))
		return
	}

	created, err := s.subscriptionUseCase.Subscribe(c.Request.Context(), subscription.SubscribeParams{
		Email:     httpReq.Email,
		City:      httpReq.City,
		Frequency: subscription.FrequencyFromString(httpReq.Frequency),
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, SubscribeResponse{
		Message:          "Subscription successful. Confirmation email sent.",
		UnsubscribeToken: created.UnsubscribeToken,
	})
}

// confirmSubscription handles GET /api/confirm/:token requests
func (s *HTTPServerAdapter) confirmSubscription(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		s.handleError(c, errors.NewValidationError("token parameter is required"))
		return
	}

	if _, err := s.subscriptionUseCase.Confirm(c.Request.Context(), subscription.ConfirmParams{Token: token}); err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Subscription confirmed successfully"})
}

// unsubscribe handles GET /api/unsubscribe/:token requests
func (s *HTTPServerAdapter) unsubscribe(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		s.handleError(c, errors.NewValidationError("token parameter is required"))
		return
	}

	if err := s.subscriptionUseCase.Unsubscribe(c.Request.Context(), subscription.UnsubscribeParams{Token: token}); err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Unsubscribed successfully"})
}

// getStatus handles GET /api/status?email= requests
func (s *HTTPServerAdapter) getStatus(c *gin.Context) {
	email := c.Query("email")

	confirmed, err := s.subscriptionUseCase.Status(c.Request.Context(), email)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Email: email, Confirmed: confirmed})
}

// getStats handles GET /api/stats requests
func (s *HTTPServerAdapter) getStats(c *gin.Context) {
	stats, err := s.subscriptionUseCase.Stats(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
