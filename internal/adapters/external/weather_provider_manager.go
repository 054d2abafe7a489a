package external

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

// WeatherProviderManagerAdapter implements Chain of Responsibility pattern for weather providers.
// Providers are tried in order; an unknown city ends the chain since the next provider
// would only repeat the answer.
type WeatherProviderManagerAdapter struct {
	providers []ports.WeatherProvider
	logger    ports.Logger
}

// ProviderManagerConfig holds configuration for creating the provider manager
type ProviderManagerConfig struct {
	WeatherAPIKey     string
	WeatherAPIBaseURL string
	OpenWeatherKey    string
	OpenWeatherURL    string
	AccuWeatherKey    string
	AccuWeatherURL    string
	ProviderOrder     []string
	Timeout           time.Duration
	Logger            ports.Logger
	Metrics           ports.MetricsCollector
}

var defaultProviderOrder = []string{"weatherapi", "openweathermap", "accuweather"}

// NewWeatherProviderManagerAdapter creates a new weather provider manager with Chain of Responsibility.
// Only providers with an API key join the chain.
func NewWeatherProviderManagerAdapter(config ProviderManagerConfig) ports.WeatherProviderManager {
	providerMap := createProviderMap(config)

	order := config.ProviderOrder
	if len(order) == 0 {
		order = defaultProviderOrder
	}

	providers := make([]ports.WeatherProvider, 0, len(providerMap))
	for _, name := range order {
		name = strings.ToLower(strings.TrimSpace(name))
		if provider, exists := providerMap[name]; exists {
			providers = append(providers, provider)
			delete(providerMap, name)
		}
	}

	if config.Logger != nil && len(providers) == 0 {
		config.Logger.Warn("No weather provider has an API key, lookups will fail until one is configured")
	}

	return NewWeatherProviderChain(providers, config.Logger)
}

// NewWeatherProviderChain builds a manager over an explicit provider list
func NewWeatherProviderChain(providers []ports.WeatherProvider, logger ports.Logger) *WeatherProviderManagerAdapter {
	return &WeatherProviderManagerAdapter{
		providers: providers,
		logger:    logger,
	}
}

func createProviderMap(config ProviderManagerConfig) map[string]ports.WeatherProvider {
	providers := make(map[string]ports.WeatherProvider)

	if config.WeatherAPIKey != "" {
		providers["weatherapi"] = NewWeatherAPIProviderAdapter(WeatherAPIProviderParams{
			APIKey:  config.WeatherAPIKey,
			BaseURL: config.WeatherAPIBaseURL,
			Timeout: config.Timeout,
			Logger:  config.Logger,
		})
	}

	if config.OpenWeatherKey != "" {
		providers["openweathermap"] = NewOpenWeatherMapProviderAdapter(OpenWeatherMapProviderParams{
			APIKey:  config.OpenWeatherKey,
			BaseURL: config.OpenWeatherURL,
			Timeout: config.Timeout,
			Logger:  config.Logger,
		})
	}

	if config.AccuWeatherKey != "" {
		providers["accuweather"] = NewAccuWeatherProviderAdapter(AccuWeatherProviderParams{
			APIKey:  config.AccuWeatherKey,
			BaseURL: config.AccuWeatherURL,
			Timeout: config.Timeout,
			Logger:  config.Logger,
		})
	}

	if config.Logger != nil || config.Metrics != nil {
		for name, provider := range providers {
			providers[name] = NewWeatherProviderLoggingDecorator(provider, config.Logger, config.Metrics)
		}
	}

	return providers
}

// GetWeather implements Chain of Responsibility - tries each provider until one succeeds
func (m *WeatherProviderManagerAdapter) GetWeather(ctx context.Context, city string) (*ports.WeatherData, error) {
	if len(m.providers) == 0 {
		return nil, missingCredentials("weather")
	}

	var lastErr error
	for i, provider := range m.providers {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewLookupError("weather lookup cancelled", err)
		}

		providerName := provider.GetProviderName()
		m.debug("Trying weather provider",
			ports.F("provider", providerName),
			ports.F("attempt", i+1),
			ports.F("city", city))

		weather, err := provider.GetCurrentWeather(ctx, city)
		if err == nil {
			return weather, nil
		}
		if errors.IsCityNotFoundError(err) || errors.IsValidationError(err) {
			return nil, err
		}

		lastErr = err
		if m.logger != nil {
			m.logger.Warn("Weather provider failed, trying next",
				ports.F("provider", providerName),
				ports.F("error", err.Error()),
				ports.F("city", city))
		}
	}

	return nil, errors.NewLookupError(
		fmt.Sprintf("all weather providers failed (tried %d providers)", len(m.providers)), lastErr)
}

// GetProviderInfo returns information about configured providers
func (m *WeatherProviderManagerAdapter) GetProviderInfo() map[string]interface{} {
	providerNames := make([]string, len(m.providers))
	for i, provider := range m.providers {
		providerNames[i] = provider.GetProviderName()
	}

	return map[string]interface{}{
		"total_providers":  len(m.providers),
		"provider_order":   providerNames,
		"fallback_enabled": len(m.providers) > 1,
	}
}

func (m *WeatherProviderManagerAdapter) debug(msg string, fields ...ports.Field) {
	if m.logger != nil {
		m.logger.Debug(msg, fields...)
	}
}
