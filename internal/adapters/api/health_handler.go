package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"weathersub.app/internal/ports"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string                        `json:"status"`
	Components map[string]ports.HealthStatus `json:"components"`
}

// getHealth handles GET /health requests
func (s *HTTPServerAdapter) getHealth(c *gin.Context) {
	components := s.healthChecker.CheckAll(c.Request.Context())
	status := ports.OverallStatus(components)

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{Status: status, Components: components})
}
