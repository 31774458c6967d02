package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMiss is returned by MemoryCache when a key is absent or expired
var ErrMiss = errors.New("cache miss")

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process LRU byte store used when no redis is configured
type MemoryCache struct {
	entries map[string]memoryEntry
	order   []string // For LRU eviction
	maxSize int
	mu      sync.Mutex
	hits    int
	misses  int
	now     func() time.Time
}

func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 32
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (c *MemoryCache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && !entry.expires.IsZero() && c.now().After(entry.expires) {
		c.remove(key)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, ErrMiss
	}

	c.hits++
	c.moveToEnd(key)
	return entry.value, nil
}

// SetBytes stores value under key. A zero ttl never expires.
func (c *MemoryCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expires = c.now().Add(ttl)
	}

	if _, ok := c.entries[key]; ok {
		c.entries[key] = entry
		c.moveToEnd(key)
		return nil
	}

	// If at capacity, evict oldest
	if len(c.entries) >= c.maxSize {
		c.remove(c.order[0])
	}
	c.entries[key] = entry
	c.order = append(c.order, key)
	return nil
}

func (c *MemoryCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *MemoryCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, key)
}

// Stats returns cache hit/miss statistics
func (c *MemoryCache) Stats() (hits, misses, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.entries)
}
