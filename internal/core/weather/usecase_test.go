package weather

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"weathersub.app/internal/mocks"
	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

type testDeps struct {
	provider *mocks.WeatherProviderManager
	cache    *mocks.WeatherCache
	config   *mocks.ConfigProvider
	logger   *mocks.Logger
	metrics  *mocks.Metrics
}

func newTestDeps(t *testing.T) testDeps {
	return testDeps{
		provider: mocks.NewWeatherProviderManager(t),
		cache:    mocks.NewWeatherCache(t),
		config:   mocks.NewConfigProvider(t),
		logger:   mocks.NewLogger(t),
		metrics:  mocks.NewMetrics(t),
	}
}

func (d testDeps) useCase(t *testing.T) *UseCase {
	uc, err := NewUseCase(UseCaseDependencies{
		WeatherProvider: d.provider,
		Cache:           d.cache,
		Config:          d.config,
		Logger:          d.logger,
		Metrics:         d.metrics,
	})
	require.NoError(t, err)
	return uc
}

func (d testDeps) withCache(enabled bool) {
	d.config.On("GetWeatherConfig").Return(ports.WeatherConfig{
		EnableCache: enabled,
		CacheTTL:    10 * time.Minute,
	})
}

func TestUseCase_GetWeather_CacheMissThenProvider(t *testing.T) {
	d := newTestDeps(t)
	d.withCache(true)

	expected := &ports.WeatherData{Temperature: 20.0, Humidity: 65.0, Description: "Sunny", City: "London"}
	d.cache.On("Get", mock.Anything, "weather:london").Return(nil, errors.NewNotFoundError("cache miss"))
	d.provider.On("GetWeather", mock.Anything, "London").Return(expected, nil)
	d.cache.On("Set", mock.Anything, "weather:london", expected, 10*time.Minute).Return(nil)

	result, err := d.useCase(t).GetWeather(context.Background(), WeatherRequest{City: " London "})

	require.NoError(t, err)
	assert.Equal(t, 20.0, result.Temperature)
	assert.Equal(t, "London", result.City)
	assert.Equal(t, 1, d.metrics.CacheMisses)
	assert.Equal(t, 0, d.metrics.CacheHits)
}

func TestUseCase_GetWeather_CacheHit(t *testing.T) {
	d := newTestDeps(t)
	d.withCache(true)

	cached := &ports.WeatherData{Temperature: 5.5, Humidity: 80, Description: "Rain", City: "Berlin"}
	d.cache.On("Get", mock.Anything, "weather:berlin").Return(cached, nil)

	result, err := d.useCase(t).GetWeather(context.Background(), WeatherRequest{City: "Berlin"})

	require.NoError(t, err)
	assert.Equal(t, "Rain", result.Description)
	assert.Equal(t, 1, d.metrics.CacheHits)
	d.provider.AssertNotCalled(t, "GetWeather", mock.Anything, mock.Anything)
}

func TestUseCase_GetWeather_CacheDisabled(t *testing.T) {
	d := newTestDeps(t)
	d.withCache(false)
	d.provider.On("GetWeather", mock.Anything, "Kyiv").
		Return(&ports.WeatherData{Temperature: 1, Humidity: 50, Description: "Snow", City: "Kyiv"}, nil)

	result, err := d.useCase(t).GetWeather(context.Background(), WeatherRequest{City: "Kyiv"})

	require.NoError(t, err)
	assert.Equal(t, "Snow", result.Description)
	d.cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestUseCase_GetWeather_CacheWriteFailureIsIgnored(t *testing.T) {
	d := newTestDeps(t)
	d.withCache(true)

	data := &ports.WeatherData{Temperature: 15, Humidity: 40, Description: "Cloudy", City: "Paris"}
	d.cache.On("Get", mock.Anything, "weather:paris").Return(nil, errors.NewNotFoundError("cache miss"))
	d.provider.On("GetWeather", mock.Anything, "Paris").Return(data, nil)
	d.cache.On("Set", mock.Anything, "weather:paris", data, mock.Anything).Return(fmt.Errorf("redis down"))

	result, err := d.useCase(t).GetWeather(context.Background(), WeatherRequest{City: "Paris"})

	require.NoError(t, err)
	assert.Equal(t, "Cloudy", result.Description)
	assert.Len(t, d.logger.EntriesAt("warn"), 1)
}

func TestUseCase_GetWeather_ValidationError(t *testing.T) {
	d := newTestDeps(t)

	result, err := d.useCase(t).GetWeather(context.Background(), WeatherRequest{City: "  "})

	assert.Nil(t, result)
	assert.True(t, errors.IsValidationError(err))
}

func TestUseCase_GetWeather_Errors(t *testing.T) {
	tests := []struct {
		name          string
		providerErr   error
		check         func(error) bool
		misconfigured bool
	}{
		{
			name:        "city_not_found_passes_through",
			providerErr: errors.NewCityNotFoundError("city not found"),
			check:       errors.IsCityNotFoundError,
		},
		{
			name:        "lookup_error_passes_through",
			providerErr: errors.NewLookupError("upstream returned 502", nil),
			check:       errors.IsLookupError,
		},
		{
			name:        "unclassified_error_becomes_lookup",
			providerErr: fmt.Errorf("dial tcp: i/o timeout"),
			check:       errors.IsLookupError,
		},
		{
			name:          "missing_credentials_is_lookup",
			providerErr:   errors.NewLookupError("no weather provider configured", errors.ErrMissingCredentials),
			check:         errors.IsLookupError,
			misconfigured: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps(t)
			d.withCache(false)
			d.provider.On("GetWeather", mock.Anything, "Atlantis").Return(nil, tt.providerErr)

			result, err := d.useCase(t).GetWeather(context.Background(), WeatherRequest{City: "Atlantis"})

			assert.Nil(t, result)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.Equal(t, tt.misconfigured, errors.IsMisconfiguration(err))

			errorLogs := d.logger.EntriesAt("error")
			if tt.misconfigured {
				require.Len(t, errorLogs, 1)
				assert.Equal(t, "Weather lookup is misconfigured", errorLogs[0].Message)
			} else {
				assert.Empty(t, errorLogs)
			}
		})
	}
}

func TestUseCase_GetWeather_InvalidProviderData(t *testing.T) {
	d := newTestDeps(t)
	d.withCache(false)
	d.provider.On("GetWeather", mock.Anything, "London").
		Return(&ports.WeatherData{Temperature: 20, Humidity: 140, Description: "Sunny", City: "London"}, nil)

	_, err := d.useCase(t).GetWeather(context.Background(), WeatherRequest{City: "London"})

	assert.True(t, errors.IsLookupError(err))
}

func TestNewUseCase_MissingDependencies(t *testing.T) {
	d := newTestDeps(t)

	_, err := NewUseCase(UseCaseDependencies{
		Cache:   d.cache,
		Config:  d.config,
		Logger:  d.logger,
		Metrics: d.metrics,
	})
	assert.True(t, errors.IsValidationError(err))

	_, err = NewUseCase(UseCaseDependencies{
		WeatherProvider: d.provider,
		Cache:           d.cache,
		Config:          d.config,
		Logger:          d.logger,
	})
	assert.True(t, errors.IsValidationError(err))
}
