package app

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
	"weathersub.app/internal/adapters/database"
	"weathersub.app/internal/adapters/external"
	"weathersub.app/internal/adapters/infrastructure"
	"weathersub.app/internal/config"
	"weathersub.app/internal/ports"
)

// DependencyContainer owns the infrastructure adapters and the resources behind them
type DependencyContainer struct {
	config   *config.Config
	db       *gorm.DB
	cache    ports.CacheProvider
	registry *prometheus.Registry
	ports    *ports.ApplicationPorts
}

// NewDependencyContainer opens the store, runs migrations and builds every adapter.
// logger receives both the core's structured log and the container's own startup log.
func NewDependencyContainer(cfg *config.Config, logger *slog.Logger) (*DependencyContainer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	container := &DependencyContainer{config: cfg}

	if err := container.initializeDatabase(logger); err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	if err := container.initializePorts(logger); err != nil {
		_ = container.Cleanup()
		return nil, fmt.Errorf("initialize ports: %w", err)
	}

	return container, nil
}

func (c *DependencyContainer) initializeDatabase(logger *slog.Logger) error {
	logger.Info("Initializing database connection...", "driver", string(c.config.Database.Driver))

	db, err := database.Open(c.config.Database)
	if err != nil {
		return err
	}

	logger.Info("Running database migrations...")
	if err := database.Migrate(db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	c.db = db
	logger.Info("Database connection established successfully")
	return nil
}

func (c *DependencyContainer) initializePorts(logger *slog.Logger) error {
	portLogger := infrastructure.NewSlogLoggerAdapter(logger)

	configProvider, err := infrastructure.NewConfigProviderAdapter(c.config)
	if err != nil {
		return fmt.Errorf("create config provider: %w", err)
	}

	c.registry = prometheus.NewRegistry()
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := infrastructure.NewPrometheusMetricsCollector(c.registry)

	providerManager := external.NewWeatherProviderManagerAdapter(external.ProviderManagerConfig{
		WeatherAPIKey:     c.config.Weather.APIKey,
		WeatherAPIBaseURL: c.config.Weather.BaseURL,
		OpenWeatherKey:    c.config.Weather.OpenWeatherMapKey,
		OpenWeatherURL:    c.config.Weather.OpenWeatherMapBaseURL,
		AccuWeatherKey:    c.config.Weather.AccuWeatherKey,
		AccuWeatherURL:    c.config.Weather.AccuWeatherBaseURL,
		ProviderOrder:     c.config.Weather.ProviderOrder,
		Timeout:           time.Duration(c.config.Weather.TimeoutSeconds) * time.Second,
		Logger:            portLogger,
		Metrics:           metrics,
	})

	cacheProvider, err := external.NewCacheProvider(&c.config.Cache)
	if err != nil {
		return fmt.Errorf("create cache provider: %w", err)
	}
	c.cache = cacheProvider
	logger.Info("Cache provider initialized", "type", c.config.Cache.Type.String())

	smtpProvider := external.NewSMTPEmailProviderAdapter(external.EmailProviderConfig{
		Host:     c.config.Email.SMTPHost,
		Port:     c.config.Email.SMTPPort,
		Username: c.config.Email.SMTPUsername,
		Password: c.config.Email.SMTPPassword,
		FromName: c.config.Email.FromName,
		FromAddr: c.config.Email.FromAddress,
		Timeout:  time.Duration(c.config.Email.TimeoutSeconds) * time.Second,
	})
	if err := smtpProvider.ValidateConfiguration(); err != nil {
		logger.Warn("Email provider is not fully configured", "error", err)
	}
	emailProvider := external.NewRateLimitedEmailProvider(smtpProvider,
		c.config.Email.SendRatePerSecond, c.config.Email.SendBurst)

	c.ports = &ports.ApplicationPorts{
		WeatherProvider: providerManager,
		WeatherCache:    external.NewJSONWeatherCache(cacheProvider),

		SubscriptionRepository: database.NewSubscriptionRepositoryAdapter(c.db, c.config.Database.QueryTimeout()),
		TokenGenerator:         infrastructure.NewCryptoTokenGenerator(),

		EmailProvider: emailProvider,

		CacheProvider: cacheProvider,

		ConfigProvider: configProvider,
		Logger:         portLogger,
		Metrics:        metrics,
		Database:       c.db,
	}

	return nil
}

// ApplicationPorts returns the adapters as ports
func (c *DependencyContainer) ApplicationPorts() *ports.ApplicationPorts {
	return c.ports
}

// Database returns the open store handle
func (c *DependencyContainer) Database() *gorm.DB {
	return c.db
}

// Registry is the Prometheus registry every collector is registered with
func (c *DependencyContainer) Registry() *prometheus.Registry {
	return c.registry
}

// HealthCheckers builds one checker per external component
func (c *DependencyContainer) HealthCheckers() *infrastructure.SystemHealthChecker {
	return infrastructure.NewSystemHealthChecker(
		infrastructure.NewDatabaseHealthChecker(c.db),
		infrastructure.NewCacheHealthChecker(c.cache),
		infrastructure.NewWeatherProviderHealthChecker(c.ports.WeatherProvider),
		infrastructure.NewEmailHealthChecker(c.ports.ConfigProvider.GetEmailConfig()),
	)
}

// Cleanup closes the cache connection and the database
func (c *DependencyContainer) Cleanup() error {
	var firstErr error

	if closer, ok := c.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}

	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
