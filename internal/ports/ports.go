// Package ports defines the interfaces for external dependencies in our hexagonal architecture.
// These interfaces are implemented by adapters and replaced by test doubles in unit tests.
package ports

// ApplicationPorts aggregates all ports for dependency injection
type ApplicationPorts struct {
	// Weather
	WeatherProvider WeatherProviderManager
	WeatherCache    WeatherCache

	// Subscription
	SubscriptionRepository SubscriptionRepository
	TokenGenerator         TokenGenerator

	// Communication
	EmailProvider EmailProvider

	// Cache
	CacheProvider CacheProvider

	// Infrastructure
	ConfigProvider ConfigProvider
	Logger         Logger
	Metrics        MetricsCollector
	Database       interface{}
}
