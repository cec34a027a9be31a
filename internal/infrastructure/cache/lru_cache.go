package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"agent-server/services/conversation-sync/internal/infrastructure/metrics"
)

// LRUCache is an in-process QueryCache bounded by entry count.
type LRUCache struct {
	cache *lru.Cache
}

// NewLRUCache creates a cache holding at most maxSize entries.
func NewLRUCache(maxSize int) (*LRUCache, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxSize)
	}
	inner, err := lru.New(maxSize)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUCache{cache: inner}, nil
}

// Get returns the cached value for the key, if present.
func (c *LRUCache) Get(key Key) (any, bool) {
	value, ok := c.cache.Get(key.String())
	if ok {
		metrics.CacheHitsTotal.Inc()
	} else {
		metrics.CacheMissesTotal.Inc()
	}
	return value, ok
}

// Set stores the value under the key.
func (c *LRUCache) Set(key Key, value any) {
	c.cache.Add(key.String(), value)
}

// Invalidate drops exactly the given key.
func (c *LRUCache) Invalidate(key Key) {
	if c.cache.Remove(key.String()) {
		metrics.CacheInvalidationsTotal.Inc()
	}
}

var _ QueryCache = (*LRUCache)(nil)
