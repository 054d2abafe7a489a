package external

import (
	"context"
	"time"

	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

// WeatherProviderLoggingDecorator decorates weather providers with structured logging
// and per-provider call metrics
type WeatherProviderLoggingDecorator struct {
	provider ports.WeatherProvider
	logger   ports.Logger
	metrics  ports.MetricsCollector
}

// NewWeatherProviderLoggingDecorator creates a new logging decorator for weather providers.
// Either logger or metrics may be nil.
func NewWeatherProviderLoggingDecorator(provider ports.WeatherProvider, logger ports.Logger, metrics ports.MetricsCollector) ports.WeatherProvider {
	return &WeatherProviderLoggingDecorator{
		provider: provider,
		logger:   logger,
		metrics:  metrics,
	}
}

// GetCurrentWeather wraps the provider call with structured logging
func (d *WeatherProviderLoggingDecorator) GetCurrentWeather(ctx context.Context, city string) (*ports.WeatherData, error) {
	providerName := d.provider.GetProviderName()
	startTime := time.Now()

	weatherData, err := d.provider.GetCurrentWeather(ctx, city)
	duration := time.Since(startTime)

	// An unknown city is a valid answer from the provider, not an outage.
	success := err == nil || errors.IsCityNotFoundError(err)
	if d.metrics != nil {
		d.metrics.RecordWeatherAPICall(providerName, success)
	}
	if d.logger == nil {
		return weatherData, err
	}

	if err != nil {
		log := d.logger.Warn
		if success {
			log = d.logger.Debug
		}
		log("Weather API request failed",
			ports.F("provider", providerName),
			ports.F("city", city),
			ports.F("duration_ms", duration.Milliseconds()),
			ports.F("error", err.Error()))
		return nil, err
	}

	d.logger.Debug("Weather API request completed",
		ports.F("provider", providerName),
		ports.F("city", city),
		ports.F("duration_ms", duration.Milliseconds()),
		ports.F("temperature", weatherData.Temperature),
		ports.F("humidity", weatherData.Humidity),
		ports.F("description", weatherData.Description))

	return weatherData, nil
}

// GetProviderName returns the name of the wrapped provider
func (d *WeatherProviderLoggingDecorator) GetProviderName() string {
	return d.provider.GetProviderName()
}
