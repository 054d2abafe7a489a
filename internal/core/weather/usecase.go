package weather

import (
	"context"
	"fmt"

	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

type UseCase struct {
	weatherProvider ports.WeatherProviderManager
	cache           ports.WeatherCache
	config          ports.ConfigProvider
	logger          ports.Logger
	metrics         ports.MetricsCollector
}

type UseCaseDependencies struct {
	WeatherProvider ports.WeatherProviderManager
	Cache           ports.WeatherCache
	Config          ports.ConfigProvider
	Logger          ports.Logger
	Metrics         ports.MetricsCollector
}

func NewUseCase(deps UseCaseDependencies) (*UseCase, error) {
	if deps.WeatherProvider == nil {
		return nil, errors.NewValidationError("weather provider is required")
	}
	if deps.Cache == nil {
		return nil, errors.NewValidationError("cache is required")
	}
	if deps.Config == nil {
		return nil, errors.NewValidationError("config is required")
	}
	if deps.Logger == nil {
		return nil, errors.NewValidationError("logger is required")
	}
	if deps.Metrics == nil {
		return nil, errors.NewValidationError("metrics is required")
	}

	return &UseCase{
		weatherProvider: deps.WeatherProvider,
		cache:           deps.Cache,
		config:          deps.Config,
		logger:          deps.Logger,
		metrics:         deps.Metrics,
	}, nil
}

// GetWeather resolves current conditions for a city. Failures surface as either
// CityNotFound or Lookup; a Lookup caused by missing provider credentials is logged as
// a misconfiguration.
func (uc *UseCase) GetWeather(ctx context.Context, request WeatherRequest) (*Weather, error) {
	if err := request.Validate(); err != nil {
		return nil, errors.NewValidationError("invalid weather request: " + err.Error())
	}

	request = request.Normalized()
	uc.logger.Debug("Getting weather for city", ports.F("city", request.City))

	weather, err := uc.getWeatherWithCache(ctx, request)
	if err != nil {
		switch {
		case errors.IsMisconfiguration(err):
			uc.logger.Error("Weather lookup is misconfigured",
				ports.F("city", request.City),
				ports.F("error", err))
		case errors.IsCityNotFoundError(err):
			uc.logger.Debug("City not found", ports.F("city", request.City))
		default:
			uc.logger.Warn("Failed to get weather",
				ports.F("city", request.City),
				ports.F("error", err))
		}
		return nil, err
	}

	uc.logger.Debug("Weather retrieved successfully",
		ports.F("city", request.City),
		ports.F("temperature", weather.Temperature))
	return weather, nil
}

func (uc *UseCase) getWeatherWithCache(ctx context.Context, request WeatherRequest) (*Weather, error) {
	weatherConfig := uc.config.GetWeatherConfig()
	if !weatherConfig.EnableCache {
		return uc.getWeatherFromProvider(ctx, request.City)
	}

	cacheKey := request.CacheKey()
	cachedWeather, err := uc.cache.Get(ctx, cacheKey)
	if err == nil && cachedWeather != nil {
		uc.metrics.RecordCacheHit()
		uc.logger.Debug("Weather found in cache", ports.F("city", request.City))
		return newWeather(cachedWeather), nil
	}
	uc.metrics.RecordCacheMiss()

	weather, err := uc.getWeatherFromProvider(ctx, request.City)
	if err != nil {
		return nil, err
	}

	if cacheErr := uc.cache.Set(ctx, cacheKey, weather.data(), weatherConfig.CacheTTL); cacheErr != nil {
		uc.logger.Warn("Failed to cache weather data",
			ports.F("city", request.City),
			ports.F("error", cacheErr))
	}

	return weather, nil
}

func (uc *UseCase) getWeatherFromProvider(ctx context.Context, city string) (*Weather, error) {
	providerWeather, err := uc.weatherProvider.GetWeather(ctx, city)
	if err != nil {
		if errors.IsCityNotFoundError(err) || errors.IsLookupError(err) {
			return nil, err
		}
		return nil, errors.NewLookupError(fmt.Sprintf("weather lookup for %s failed", city), err)
	}

	domainWeather := newWeather(providerWeather)
	if err := domainWeather.Validate(); err != nil {
		return nil, errors.NewLookupError("invalid weather data from provider", err)
	}

	return domainWeather, nil
}

// GetProviderInfo describes the configured provider chain
func (uc *UseCase) GetProviderInfo() map[string]interface{} {
	return uc.weatherProvider.GetProviderInfo()
}
