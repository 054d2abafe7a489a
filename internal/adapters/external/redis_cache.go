package external

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/go-redis/redis/v8"
	"weathersub.app/internal/config"
	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

const (
	redisConnectTimeout = 5 * time.Second
	// redisKeyPrefix namespaces every key so Clear never touches other tenants of the DB
	redisKeyPrefix = "weathersub:"
	redisScanBatch = 100
)

// RedisCache stores entries in Redis under redisKeyPrefix. Expiry is left to Redis.
type RedisCache struct {
	client  *redis.Client
	lookups lookupCounter
}

// NewRedisCache connects to Redis and fails fast when it is unreachable
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError("redis config cannot be nil", nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis", err)
	}

	return &RedisCache{client: client}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	value, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	switch {
	case stderrors.Is(err, redis.Nil):
		r.lookups.miss()
		return nil, errors.NewNotFoundError("cache miss")
	case err != nil:
		return nil, errors.NewCacheError("redis get failed", err)
	}

	r.lookups.hit()
	return value, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := checkEntry(key, value, ttl); err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err(); err != nil {
		return errors.NewCacheError("redis set failed", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return errors.NewCacheError("redis delete failed", err)
	}
	return nil
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	count, err := r.client.Exists(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return false, errors.NewCacheError("redis exists failed", err)
	}
	return count > 0, nil
}

// Clear deletes the prefixed keys only, scanning in batches instead of FLUSHDB
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", redisScanBatch).Iterator()
	batch := make([]string, 0, redisScanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == redisScanBatch {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return errors.NewCacheError("redis clear failed", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return errors.NewCacheError("redis scan failed", err)
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return errors.NewCacheError("redis clear failed", err)
		}
	}
	return nil
}

func (r *RedisCache) GetStats() ports.CacheStats {
	return r.lookups.snapshot()
}

// Ping is used by the cache health check
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.NewCacheError("redis ping failed", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	if err := r.client.Close(); err != nil {
		return errors.NewCacheError("failed to close Redis connection", err)
	}
	return nil
}
