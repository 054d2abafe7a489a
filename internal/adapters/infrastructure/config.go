package infrastructure

import (
	"time"

	"weathersub.app/internal/config"
	"weathersub.app/internal/ports"
)

// ConfigProviderAdapter implements the ConfigProvider port
type ConfigProviderAdapter struct {
	config   *config.Config
	location *time.Location
}

// NewConfigProviderAdapter creates a new config provider adapter. The scheduler
// timezone is resolved once here so an invalid zone fails at startup.
func NewConfigProviderAdapter(cfg *config.Config) (*ConfigProviderAdapter, error) {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}
	return &ConfigProviderAdapter{
		config:   cfg,
		location: loc,
	}, nil
}

// GetAppConfig returns application configuration
func (c *ConfigProviderAdapter) GetAppConfig() ports.AppConfig {
	return ports.AppConfig{
		BaseURL: c.config.AppBaseURL,
	}
}

// GetWeatherConfig returns weather configuration
func (c *ConfigProviderAdapter) GetWeatherConfig() ports.WeatherConfig {
	return ports.WeatherConfig{
		EnableCache: c.config.Weather.EnableCache,
		CacheTTL:    time.Duration(c.config.Weather.CacheTTLMinutes) * time.Minute,
	}
}

// GetEmailConfig returns email configuration
func (c *ConfigProviderAdapter) GetEmailConfig() ports.EmailConfig {
	return ports.EmailConfig{
		SMTPHost:     c.config.Email.SMTPHost,
		SMTPPort:     c.config.Email.SMTPPort,
		SMTPUsername: c.config.Email.SMTPUsername,
		SMTPPassword: c.config.Email.SMTPPassword,
		FromName:     c.config.Email.FromName,
		FromAddress:  c.config.Email.FromAddress,
	}
}

// GetSchedulerConfig returns scheduler configuration
func (c *ConfigProviderAdapter) GetSchedulerConfig() ports.SchedulerConfig {
	return ports.SchedulerConfig{
		Location:         c.location,
		MaxConcurrency:   c.config.Scheduler.MaxConcurrency,
		RecipientTimeout: c.config.Scheduler.RecipientTimeout(),
	}
}
