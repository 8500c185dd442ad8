// Package cache wraps an in-memory TTL cache behind a typed interface,
// used to keep hot read paths (the leaderboard) off the database.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration      = 30 * time.Second
	DefaultCleanupInterval = 5 * time.Minute
)

// Cache stores values of one type under string keys with a per-cache TTL.
type Cache[V any] struct {
	store *gocache.Cache
}

func New[V any](expiration, cleanupInterval time.Duration) *Cache[V] {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Cache[V]{store: gocache.New(expiration, cleanupInterval)}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	raw, found := c.store.Get(key)
	if !found {
		return zero, false
	}
	value, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return value, true
}

func (c *Cache[V]) Set(key string, value V) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

func (c *Cache[V]) Delete(key string) {
	c.store.Delete(key)
}
