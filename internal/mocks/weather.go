package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"weathersub.app/internal/ports"
)

// WeatherProviderManager is a mock of ports.WeatherProviderManager
type WeatherProviderManager struct {
	mock.Mock
}

// NewWeatherProviderManager creates a mock that asserts its expectations on cleanup
func NewWeatherProviderManager(t testing.TB) *WeatherProviderManager {
	m := &WeatherProviderManager{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *WeatherProviderManager) GetWeather(ctx context.Context, city string) (*ports.WeatherData, error) {
	args := m.Called(ctx, city)
	return weatherData(args, 0), args.Error(1)
}

func (m *WeatherProviderManager) GetProviderInfo() map[string]interface{} {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.(map[string]interface{})
	}
	return nil
}

// WeatherProvider is a mock of ports.WeatherProvider
type WeatherProvider struct {
	mock.Mock
}

// NewWeatherProvider creates a mock that asserts its expectations on cleanup
func NewWeatherProvider(t testing.TB) *WeatherProvider {
	m := &WeatherProvider{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *WeatherProvider) GetCurrentWeather(ctx context.Context, city string) (*ports.WeatherData, error) {
	args := m.Called(ctx, city)
	return weatherData(args, 0), args.Error(1)
}

func (m *WeatherProvider) GetProviderName() string {
	return m.Called().String(0)
}

// WeatherCache is a mock of ports.WeatherCache
type WeatherCache struct {
	mock.Mock
}

// NewWeatherCache creates a mock that asserts its expectations on cleanup
func NewWeatherCache(t testing.TB) *WeatherCache {
	m := &WeatherCache{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *WeatherCache) Get(ctx context.Context, key string) (*ports.WeatherData, error) {
	args := m.Called(ctx, key)
	return weatherData(args, 0), args.Error(1)
}

func (m *WeatherCache) Set(ctx context.Context, key string, weather *ports.WeatherData, ttl time.Duration) error {
	args := m.Called(ctx, key, weather, ttl)
	return args.Error(0)
}

func weatherData(args mock.Arguments, index int) *ports.WeatherData {
	if v := args.Get(index); v != nil {
		return v.(*ports.WeatherData)
	}
	return nil
}
