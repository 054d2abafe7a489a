// Package api provides HTTP adapters for the hexagonal architecture
// These adapters handle incoming HTTP requests and translate them to use cases
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"weathersub.app/internal/core/notification"
	"weathersub.app/internal/core/subscription"
	"weathersub.app/internal/core/weather"
	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port                int
	AdminTriggerEnabled bool
	AdminRunTimeout     time.Duration
}

// HTTPServerAdapter implements HTTP server using Gin framework
type HTTPServerAdapter struct {
	router              *gin.Engine
	config              ServerConfig
	weatherUseCase      WeatherUseCase
	subscriptionUseCase SubscriptionUseCase
	batchTrigger        BatchTrigger
	healthChecker       ports.SystemHealthChecker
}

// Use case interfaces that the HTTP adapter depends on
type WeatherUseCase interface {
	GetWeather(ctx context.Context, request weather.WeatherRequest) (*weather.Weather, error)
}

type SubscriptionUseCase interface {
	Subscribe(ctx context.Context, params subscription.SubscribeParams) (*subscription.Subscription, error)
	Confirm(ctx context.Context, params subscription.ConfirmParams) (*subscription.Subscription, error)
	Unsubscribe(ctx context.Context, params subscription.UnsubscribeParams) error
	Status(ctx context.Context, email string) (bool, error)
	Stats(ctx context.Context) (*subscription.Stats, error)
}

// BatchTrigger starts an out-of-schedule batch run
type BatchTrigger interface {
	RunNow(ctx context.Context, frequency subscription.Frequency) (*notification.BatchResult, error)
}

// ServerOptions represents options for creating the HTTP server
type ServerOptions struct {
	Config              ServerConfig
	WeatherUseCase      WeatherUseCase
	SubscriptionUseCase SubscriptionUseCase
	BatchTrigger        BatchTrigger
	HealthChecker       ports.SystemHealthChecker
	// MetricsHandler serves /metrics. Defaults to the global Prometheus registry.
	MetricsHandler http.Handler
}

// NewHTTPServerAdapter creates a new HTTP server adapter
func NewHTTPServerAdapter(opts ServerOptions) (*HTTPServerAdapter, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server options: %w", err)
	}
	if err := RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	router := gin.Default()

	server := &HTTPServerAdapter{
		router:              router,
		config:              opts.Config,
		weatherUseCase:      opts.WeatherUseCase,
		subscriptionUseCase: opts.SubscriptionUseCase,
		batchTrigger:        opts.BatchTrigger,
		healthChecker:       opts.HealthChecker,
	}

	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	server.setupRoutes(metricsHandler)
	return server, nil
}

// Validate checks if all required dependencies are provided
func (opts *ServerOptions) Validate() error {
	if opts.WeatherUseCase == nil {
		return errors.NewValidationError("weather use case is required")
	}
	if opts.SubscriptionUseCase == nil {
		return errors.NewValidationError("subscription use case is required")
	}
	if opts.HealthChecker == nil {
		return errors.NewValidationError("health checker is required")
	}
	if opts.Config.AdminTriggerEnabled && opts.BatchTrigger == nil {
		return errors.NewValidationError("batch trigger is required when the admin trigger is enabled")
	}
	return nil
}

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the "frequency" binding tag to gin's validator
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		registerErr = v.RegisterValidation("frequency", validateFrequency)
	})
	return registerErr
}

func validateFrequency(fl validator.FieldLevel) bool {
	return subscription.FrequencyFromString(fl.Field().String()).IsValid()
}

// setupRoutes configures all HTTP routes
func (s *HTTPServerAdapter) setupRoutes(metricsHandler http.Handler) {
	api := s.router.Group("/api")
	{
		api.GET("/weather", s.getWeather)
		api.POST("/subscribe", s.subscribe)
		api.GET("/confirm/:token", s.confirmSubscription)
		api.GET("/unsubscribe/:token", s.unsubscribe)
		api.GET("/status", s.getStatus)
		api.GET("/stats", s.getStats)

		if s.config.AdminTriggerEnabled {
			api.POST("/admin/notify/:frequency", s.triggerBatch)
		}
	}

	s.router.GET("/health", s.getHealth)
	s.router.GET("/metrics", gin.WrapH(metricsHandler))
}

// Start begins the HTTP server
func (s *HTTPServerAdapter) Start(ctx context.Context) error {
	slog.Info("Starting HTTP server", "port", s.config.Port)
	return s.router.Run(fmt.Sprintf(":%d", s.config.Port))
}

// GetRouter returns the router for testing purposes
func (s *HTTPServerAdapter) GetRouter() *gin.Engine {
	return s.router
}
