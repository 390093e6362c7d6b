package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache implements Cache with an in-process map. It backs local
// development without a Redis server and the unit tests of cache consumers.
// Expired entries are dropped lazily on access.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Set stores value under key with the given time to live.
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

// Get returns the value for key.
func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return "", ErrKeyNotFound
	}
	return entry.value, nil
}

// GetDel returns and removes the value for key. The mutex makes the
// read-and-delete atomic with respect to concurrent callers.
func (c *MemoryCache) GetDel(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	delete(c.entries, key)
	if c.now().After(entry.expiresAt) {
		return "", ErrKeyNotFound
	}
	return entry.value, nil
}
