package infrastructure

import (
	"context"

	"weathersub.app/internal/ports"
)

// SystemHealthChecker aggregates component health checks
type SystemHealthChecker struct {
	checkers []ports.HealthChecker
}

// NewSystemHealthChecker creates a new system health checker
func NewSystemHealthChecker(checkers ...ports.HealthChecker) *SystemHealthChecker {
	return &SystemHealthChecker{checkers: checkers}
}

// CheckAll performs health checks on all components, keyed by component name
func (s *SystemHealthChecker) CheckAll(ctx context.Context) map[string]ports.HealthStatus {
	results := make(map[string]ports.HealthStatus, len(s.checkers))
	for _, checker := range s.checkers {
		if checker == nil {
			continue
		}
		status := checker.Check(ctx)
		results[status.Component] = status
	}
	return results
}
