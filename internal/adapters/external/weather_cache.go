package external

import (
	"context"
	"encoding/json"
	"time"

	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

// JSONWeatherCache stores weather readings as JSON in any CacheProvider
type JSONWeatherCache struct {
	store ports.CacheProvider
}

func NewJSONWeatherCache(store ports.CacheProvider) *JSONWeatherCache {
	return &JSONWeatherCache{store: store}
}

// Get returns the cached reading for key. A miss is a NotFound error. An entry that no
// longer decodes is evicted so the next lookup refills it from a provider.
func (w *JSONWeatherCache) Get(ctx context.Context, key string) (*ports.WeatherData, error) {
	raw, err := w.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var reading ports.WeatherData
	if err := json.Unmarshal(raw, &reading); err != nil {
		_ = w.store.Delete(ctx, key)
		return nil, errors.NewCacheError("cached weather entry is corrupt", err)
	}
	return &reading, nil
}

func (w *JSONWeatherCache) Set(ctx context.Context, key string, reading *ports.WeatherData, ttl time.Duration) error {
	if reading == nil {
		return errors.NewValidationError("weather data cannot be nil")
	}

	raw, err := json.Marshal(reading)
	if err != nil {
		return errors.NewCacheError("failed to encode weather data", err)
	}
	return w.store.Set(ctx, key, raw, ttl)
}
