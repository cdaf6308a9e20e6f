package query

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL applies when Set is called with a non-positive ttl.
const DefaultTTL = 5 * time.Minute

type cacheEntry struct {
	data     interface{}
	storedAt time.Time
	ttl      time.Duration
}

// Cache is a process-local TTL cache for query results keyed by
// caller-chosen strings. Expiry is lazy: an entry past its ttl is dropped
// when read. Concurrent loads of the same key are collapsed through
// singleflight so identical list queries hit the database once.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: map[string]cacheEntry{},
		now:     time.Now,
	}
}

func (c *Cache) Set(key string, data interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, storedAt: c.now(), ttl: ttl}
}

// Get returns the cached value, or nil and false when the key is absent
// or expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > entry.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.data, true
}

// GetOrLoad returns the cached value or invokes load once per key across
// concurrent callers, caching the result on success.
func (c *Cache) GetOrLoad(key string, ttl time.Duration, load func() (interface{}, error)) (interface{}, error) {
	if data, ok := c.Get(key); ok {
		return data, nil
	}
	data, err, _ := c.group.Do(key, func() (interface{}, error) {
		if data, ok := c.Get(key); ok {
			return data, nil
		}
		data, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, data, ttl)
		return data, nil
	})
	return data, err
}

// Invalidate removes every key containing pattern as a substring.
func (c *Cache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]cacheEntry{}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
