package external

import (
	"fmt"
	"sync/atomic"
	"time"

	"weathersub.app/internal/config"
	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

// NewCacheProvider builds the byte cache selected by CACHE_TYPE. Redis is dialed
// immediately, so an unreachable server fails startup instead of the first lookup.
func NewCacheProvider(cfg *config.CacheConfig) (ports.CacheProvider, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError("cache config cannot be nil", nil)
	}

	switch cfg.Type {
	case config.CacheTypeMemory:
		return NewMemoryCache(), nil
	case config.CacheTypeRedis:
		cache, err := NewRedisCache(&cfg.Redis)
		if err != nil {
			// return a nil interface, not a typed nil *RedisCache
			return nil, err
		}
		return cache, nil
	default:
		return nil, errors.NewConfigurationError(
			fmt.Sprintf("unsupported cache type: %s", cfg.Type.String()), nil)
	}
}

func checkKey(key string) error {
	if key == "" {
		return errors.NewValidationError("cache key cannot be empty")
	}
	return nil
}

func checkEntry(key string, value []byte, ttl time.Duration) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if value == nil {
		return errors.NewValidationError("cache value cannot be nil")
	}
	if ttl <= 0 {
		return errors.NewValidationError("cache TTL must be positive")
	}
	return nil
}

// lookupCounter tracks hits and misses for CacheStatsReporter
type lookupCounter struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *lookupCounter) hit()  { c.hits.Add(1) }
func (c *lookupCounter) miss() { c.misses.Add(1) }

func (c *lookupCounter) snapshot() ports.CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	stats := ports.CacheStats{
		Hits:        hits,
		Misses:      misses,
		TotalOps:    hits + misses,
		LastUpdated: time.Now(),
	}
	if stats.TotalOps > 0 {
		stats.HitRatio = float64(hits) / float64(stats.TotalOps)
	}
	return stats
}
