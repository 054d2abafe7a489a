package ports

import (
	"time"
)

// WeatherConfig represents weather service configuration
type WeatherConfig struct {
	EnableCache bool
	CacheTTL    time.Duration
}

// AppConfig represents application configuration
type AppConfig struct {
	BaseURL string
}

// EmailConfig represents email configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromAddress  string
}

// SchedulerConfig represents scheduler configuration
type SchedulerConfig struct {
	Location         *time.Location
	MaxConcurrency   int
	RecipientTimeout time.Duration
}

// ConfigProvider defines the contract for configuration management
type ConfigProvider interface {
	GetWeatherConfig() WeatherConfig
	GetAppConfig() AppConfig
	GetEmailConfig() EmailConfig
	GetSchedulerConfig() SchedulerConfig
}

// Logger defines the contract for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a log field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// MetricsCollector defines the contract for metrics collection
type MetricsCollector interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordWeatherAPICall(provider string, success bool)
	RecordLifecycleEvent(event string)
	RecordDelivery(frequency string, success bool)
	RecordBatch(frequency string, duration time.Duration, sent, failed int)
}
