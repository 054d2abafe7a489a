package external

import (
	"context"
	"sync"
	"time"

	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

// MemoryCache keeps entries in process memory. Expired entries are dropped when they
// are next read, and swept out on Set once the map has grown past sweepThreshold.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
	lookups lookupCounter
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

const sweepThreshold = 1024

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, still := c.entries[key]; still && !c.now().Before(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		ok = false
	}
	if !ok {
		c.lookups.miss()
		return nil, errors.NewNotFoundError("cache miss")
	}

	c.lookups.hit()
	return entry.value, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := checkEntry(key, value, ttl); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.entries) >= sweepThreshold {
		for k, entry := range c.entries {
			if !now.Before(entry.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	return ok && c.now().Before(entry.expiresAt), nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) GetStats() ports.CacheStats {
	return c.lookups.snapshot()
}

// Len counts stored entries, including expired ones not yet dropped
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
