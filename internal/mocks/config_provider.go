package mocks

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"weathersub.app/internal/ports"
)

// ConfigProvider is a mock of ports.ConfigProvider
type ConfigProvider struct {
	mock.Mock
}

// NewConfigProvider creates a mock that asserts its expectations on cleanup
func NewConfigProvider(t testing.TB) *ConfigProvider {
	m := &ConfigProvider{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ConfigProvider) GetWeatherConfig() ports.WeatherConfig {
	return m.Called().Get(0).(ports.WeatherConfig)
}

func (m *ConfigProvider) GetAppConfig() ports.AppConfig {
	return m.Called().Get(0).(ports.AppConfig)
}

func (m *ConfigProvider) GetEmailConfig() ports.EmailConfig {
	return m.Called().Get(0).(ports.EmailConfig)
}

func (m *ConfigProvider) GetSchedulerConfig() ports.SchedulerConfig {
	return m.Called().Get(0).(ports.SchedulerConfig)
}
