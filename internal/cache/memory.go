package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 10 * time.Minute

// MemoryCache is a process-local cache for development and tests.
type MemoryCache struct {
	items *gocache.Cache
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: gocache.New(gocache.NoExpiration, memoryCleanupInterval)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Miss, err
	}
	v, ok := c.items.Get(key)
	if !ok {
		return Miss, nil
	}
	b, _ := v.([]byte)
	return Hit(b), nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.items.Set(key, stored, ttl)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		c.items.Delete(k)
	}
	return nil
}

// Flush drops every entry.
func (c *MemoryCache) Flush() {
	c.items.Flush()
}
