package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"weathersub.app/internal/config"
	"weathersub.app/pkg/errors"
)

func TestConfigProviderAdapter(t *testing.T) {
	cfg := &config.Config{
		AppBaseURL: "https://weather.example",
		Weather:    config.WeatherConfig{EnableCache: true, CacheTTLMinutes: 15},
		Email: config.EmailConfig{
			SMTPHost: "smtp.example.com", SMTPPort: 587, FromName: "Weather", FromAddress: "w@example.com",
		},
		Scheduler: config.SchedulerConfig{Timezone: "Europe/Berlin", MaxConcurrency: 4, RecipientTimeoutSeconds: 20},
	}

	provider, err := NewConfigProviderAdapter(cfg)
	require.NoError(t, err)

	assert.Equal(t, "https://weather.example", provider.GetAppConfig().BaseURL)
	assert.True(t, provider.GetWeatherConfig().EnableCache)
	assert.Equal(t, 15*time.Minute, provider.GetWeatherConfig().CacheTTL)
	assert.Equal(t, "smtp.example.com", provider.GetEmailConfig().SMTPHost)
	assert.Equal(t, "w@example.com", provider.GetEmailConfig().FromAddress)

	scheduler := provider.GetSchedulerConfig()
	assert.Equal(t, "Europe/Berlin", scheduler.Location.String())
	assert.Equal(t, 4, scheduler.MaxConcurrency)
	assert.Equal(t, 20*time.Second, scheduler.RecipientTimeout)
}

func TestConfigProviderAdapter_InvalidTimezone(t *testing.T) {
	_, err := NewConfigProviderAdapter(&config.Config{
		Scheduler: config.SchedulerConfig{Timezone: "Mars/Olympus_Mons"},
	})
	assert.True(t, errors.IsConfigurationError(err))
}
