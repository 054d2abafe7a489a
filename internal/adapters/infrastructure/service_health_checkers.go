package infrastructure

import (
	"context"
	"fmt"

	"weathersub.app/internal/ports"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// Pinger is implemented by cache providers backed by a remote server
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheHealthChecker reports cache reachability and hit statistics
type CacheHealthChecker struct {
	cache ports.CacheProvider
}

// NewCacheHealthChecker creates a cache health checker
func NewCacheHealthChecker(cache ports.CacheProvider) *CacheHealthChecker {
	return &CacheHealthChecker{cache: cache}
}

// Check pings remote caches; an in-process cache is always reachable
func (c *CacheHealthChecker) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Component: "cache",
		Status:    statusHealthy,
		Details:   make(map[string]interface{}),
	}

	if c.cache == nil {
		status.Status = statusUnhealthy
		status.Error = "cache is not configured"
		return status
	}

	if pinger, ok := c.cache.(Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			// Lookups still work without a cache, only slower.
			status.Status = statusDegraded
			status.Error = err.Error()
			return status
		}
	}

	if reporter, ok := c.cache.(ports.CacheStatsReporter); ok {
		stats := reporter.GetStats()
		status.Details["hits"] = stats.Hits
		status.Details["misses"] = stats.Misses
		status.Details["hit_ratio"] = stats.HitRatio
	}
	return status
}

// EmailHealthChecker reports whether outgoing mail is configured. It does not
// open a connection to the relay.
type EmailHealthChecker struct {
	config ports.EmailConfig
}

// NewEmailHealthChecker creates a new email health checker
func NewEmailHealthChecker(config ports.EmailConfig) *EmailHealthChecker {
	return &EmailHealthChecker{config: config}
}

// Check verifies email service configuration
func (e *EmailHealthChecker) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Component: "smtp",
		Status:    statusHealthy,
		Details: map[string]interface{}{
			"host":          e.config.SMTPHost,
			"port":          fmt.Sprintf("%d", e.config.SMTPPort),
			"authenticated": e.config.SMTPUsername != "" && e.config.SMTPPassword != "",
		},
	}
	if e.config.SMTPHost == "" || e.config.FromAddress == "" {
		status.Status = statusUnhealthy
		status.Error = "SMTP host and from address must be set"
	}
	return status
}

// WeatherProviderHealthChecker reports the configured provider chain
type WeatherProviderHealthChecker struct {
	weatherProvider ports.WeatherProviderManager
}

// NewWeatherProviderHealthChecker creates a new weather provider health checker
func NewWeatherProviderHealthChecker(weatherProvider ports.WeatherProviderManager) *WeatherProviderHealthChecker {
	return &WeatherProviderHealthChecker{weatherProvider: weatherProvider}
}

// Check reports degraded when no provider has credentials, since every lookup and
// every delivery would then fail
func (w *WeatherProviderHealthChecker) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Component: "weather",
		Status:    statusHealthy,
	}

	if w.weatherProvider == nil {
		status.Status = statusUnhealthy
		status.Error = "weather provider is not available"
		return status
	}

	status.Details = w.weatherProvider.GetProviderInfo()
	if total, ok := status.Details["total_providers"].(int); ok && total == 0 {
		status.Status = statusDegraded
		status.Error = "no weather provider credentials configured"
	}
	return status
}
