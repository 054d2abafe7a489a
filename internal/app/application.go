// Package app wires adapters, use cases, the scheduler and the HTTP server together
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"weathersub.app/internal/adapters/api"
	"weathersub.app/internal/config"
	"weathersub.app/internal/core/notification"
	"weathersub.app/internal/core/subscription"
	"weathersub.app/internal/core/weather"
	"weathersub.app/internal/ports"
	"weathersub.app/internal/scheduler"
)

type Application struct {
	config *config.Config
	logger *slog.Logger

	// Use Cases
	weatherUseCase      *weather.UseCase
	subscriptionUseCase *subscription.UseCase
	notificationUseCase *notification.UseCase

	scheduler *scheduler.Scheduler

	// Adapters
	httpServer *http.Server
	router     *gin.Engine

	// Infrastructure
	container *DependencyContainer
	ports     *ports.ApplicationPorts
}

// NewApplication builds the dependency container and everything on top of it
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	container, err := NewDependencyContainer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create dependency container: %w", err)
	}

	app, err := NewApplicationWithDependencies(cfg, logger, container)
	if err != nil {
		_ = container.Cleanup()
		return nil, err
	}
	return app, nil
}

// NewApplicationWithDependencies creates an application over an existing container
func NewApplicationWithDependencies(cfg *config.Config, logger *slog.Logger, container *DependencyContainer) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	app := &Application{
		config:    cfg,
		logger:    logger,
		container: container,
		ports:     container.ApplicationPorts(),
	}

	if err := app.initializeUseCases(); err != nil {
		return nil, fmt.Errorf("initialize use cases: %w", err)
	}

	if err := app.initializeScheduler(); err != nil {
		return nil, fmt.Errorf("initialize scheduler: %w", err)
	}

	if err := app.initializeAdapters(); err != nil {
		return nil, fmt.Errorf("initialize adapters: %w", err)
	}

	return app, nil
}

func (a *Application) initializeUseCases() error {
	a.logger.Info("Initializing use cases...")

	weatherUseCase, err := weather.NewUseCase(weather.UseCaseDependencies{
		WeatherProvider: a.ports.WeatherProvider,
		Cache:           a.ports.WeatherCache,
		Config:          a.ports.ConfigProvider,
		Logger:          a.ports.Logger,
		Metrics:         a.ports.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create weather use case: %w", err)
	}
	a.weatherUseCase = weatherUseCase

	notificationUseCase, err := notification.NewUseCase(notification.UseCaseDependencies{
		SubscriptionRepo: a.ports.SubscriptionRepository,
		EmailProvider:    a.ports.EmailProvider,
		WeatherLookup:    a.weatherUseCase,
		Config:           a.ports.ConfigProvider,
		Logger:           a.ports.Logger,
		Metrics:          a.ports.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create notification use case: %w", err)
	}
	a.notificationUseCase = notificationUseCase

	subscriptionUseCase, err := subscription.NewUseCase(subscription.UseCaseDependencies{
		SubscriptionRepo: a.ports.SubscriptionRepository,
		TokenGenerator:   a.ports.TokenGenerator,
		EmailProvider:    a.ports.EmailProvider,
		FirstUpdate:      notificationUseCase,
		Config:           a.ports.ConfigProvider,
		Logger:           a.ports.Logger,
		Metrics:          a.ports.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create subscription use case: %w", err)
	}
	a.subscriptionUseCase = subscriptionUseCase

	return nil
}

func (a *Application) initializeScheduler() error {
	s, err := scheduler.New(scheduler.Dependencies{
		Runner:   a.notificationUseCase,
		Logger:   a.ports.Logger,
		Location: a.ports.ConfigProvider.GetSchedulerConfig().Location,
	})
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	a.scheduler = s
	return nil
}

func (a *Application) initializeAdapters() error {
	opts := api.ServerOptions{
		Config: api.ServerConfig{
			Port:                a.config.Server.Port,
			AdminTriggerEnabled: a.config.Server.AdminTriggerEnabled,
		},
		WeatherUseCase:      a.weatherUseCase,
		SubscriptionUseCase: a.subscriptionUseCase,
		BatchTrigger:        a.scheduler,
		HealthChecker:       a.container.HealthCheckers(),
		MetricsHandler: promhttp.HandlerFor(a.container.Registry(), promhttp.HandlerOpts{
			Registry: a.container.Registry(),
		}),
	}

	httpAdapter, err := api.NewHTTPServerAdapter(opts)
	if err != nil {
		return fmt.Errorf("create HTTP adapter: %w", err)
	}

	a.router = httpAdapter.GetRouter()

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return nil
}

// Start runs the scheduler in the background and serves HTTP until Shutdown
func (a *Application) Start(ctx context.Context) error {
	if a.config.Scheduler.Enabled {
		a.scheduler.Start(ctx)
	} else {
		a.logger.Info("Scheduler disabled")
	}

	a.logger.Info("Starting HTTP server", "port", a.config.Server.Port)
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	return nil
}

// Shutdown waits for in-flight batch runs, stops accepting requests, then releases
// the store and cache. ctx bounds the whole shutdown.
func (a *Application) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	stopped := make(chan struct{})
	go func() {
		a.scheduler.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		a.logger.Warn("Gave up waiting for running batches", "error", ctx.Err())
	}

	var shutdownErr error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Error shutting down HTTP server", "error", err)
		shutdownErr = fmt.Errorf("shutdown HTTP server: %w", err)
	}

	if err := a.container.Cleanup(); err != nil {
		a.logger.Warn("Error releasing resources", "error", err)
	}

	a.logger.Info("Application shutdown complete")
	return shutdownErr
}

// Config returns the application configuration
func (a *Application) Config() *config.Config {
	return a.config
}

// GetRouter returns the Gin router for testing
func (a *Application) GetRouter() *gin.Engine {
	return a.router
}

// Scheduler returns the batch scheduler
func (a *Application) Scheduler() *scheduler.Scheduler {
	return a.scheduler
}
