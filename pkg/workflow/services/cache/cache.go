// Package cache is the default cacheService collaborator: a
// github.com/redis/go-redis/v9 client caching CCI/LCD/RVU reference
// lookups, falling back to an in-process map when no Redis endpoint is
// configured so unit tests never need a network.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache implements agent.Cache.
type Cache struct {
	client *redis.Client

	mu    sync.RWMutex
	local map[string]localEntry
}

type localEntry struct {
	value   string
	expires time.Time
}

// New builds a Cache backed by Redis at addr. An empty addr selects the
// in-process fallback only.
func New(addr string) *Cache {
	c := &Cache{local: make(map[string]localEntry)}
	if addr != "" {
		c.client = redis.NewClient(&redis.Options{Addr: addr})
	}
	return c
}

// Get returns the cached value for key and whether it was present and
// unexpired.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c.client != nil {
		val, err := c.client.Get(ctx, key).Result()
		if err == nil {
			return val, true
		}
		if err != redis.Nil {
			return c.getLocal(key)
		}
		return "", false
	}
	return c.getLocal(key)
}

func (c *Cache) getLocal(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.local[key]
	if !ok {
		return "", false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		return "", false
	}
	return e.value, true
}

// Set stores value under key with ttl (0 means no expiry).
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if c.client != nil {
		if err := c.client.Set(ctx, key, value, ttl).Err(); err == nil {
			return
		}
	}
	c.setLocal(key, value, ttl)
}

func (c *Cache) setLocal(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := localEntry{value: value}
	if ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}
	c.local[key] = entry
}
