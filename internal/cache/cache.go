// Package cache provides the TTL store that sits between the
// spreadsheet fetcher, the analytics engines and the HTTP layer. The
// engines themselves are cache-agnostic pure functions; entries here
// are an optimization only and recomputing is always safe.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Entry wraps one cached value with its lifetime bookkeeping.
type Entry struct {
	Value     interface{} `json:"-"`
	CachedAt  time.Time   `json:"cached_at"`
	ExpiresAt time.Time   `json:"expires_at"`
	HitCount  int         `json:"hit_count"`
}

// Cache is a size-bounded TTL map with background expiry. All methods
// are safe for concurrent use.
type Cache struct {
	entries   map[string]Entry
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// New creates a cache with the given default TTL and entry limit and
// starts its cleanup goroutine. Call Stop when done.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		entries:  make(map[string]Entry),
		ttl:      ttl,
		maxSize:  maxSize,
		stopChan: make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Key fingerprints an operation and its arguments into a stable cache
// key. Arguments are hashed through their JSON form, so any two calls
// with equal arguments share an entry.
func Key(operation string, args ...interface{}) string {
	if len(args) == 0 {
		return operation
	}
	payload, err := json.Marshal(args)
	if err != nil {
		// Unmarshalable arguments still deserve a distinct key.
		payload = []byte(fmt.Sprintf("%v", args))
	}
	digest := sha256.Sum256(payload)
	return operation + ":" + hex.EncodeToString(digest[:8])
}

// Get retrieves a live entry.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.ExpiresAt) {
		c.missCount++
		return nil, false
	}

	entry.HitCount++
	c.entries[key] = entry
	c.hitCount++

	return entry.Value, true
}

// Set stores a value under the cache's default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetTTL(key, value, c.ttl)
}

// SetTTL stores a value with an explicit lifetime, evicting the oldest
// entry when the cache is full.
func (c *Cache) SetTTL(key string, value interface{}, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize <= 0 {
		return
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = Entry{
		Value:     value,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Invalidate removes one entry.
func (c *Cache) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

// InvalidateAll empties the cache. Used when fresh data arrives and
// every derived result is stale at once.
func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]Entry)
}

// Len returns the number of entries, expired ones included until the
// next sweep.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// GetStats returns cache statistics for the health endpoint.
func (c *Cache) GetStats() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	totalRequests := c.hitCount + c.missCount
	hitRatio := float64(0)
	if totalRequests > 0 {
		hitRatio = float64(c.hitCount) / float64(totalRequests)
	}

	return map[string]interface{}{
		"entries":     len(c.entries),
		"max_size":    c.maxSize,
		"hit_count":   c.hitCount,
		"miss_count":  c.missCount,
		"hit_ratio":   hitRatio,
		"ttl_seconds": c.ttl.Seconds(),
	}
}

func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.CachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CachedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.ExpiresAt) {
					delete(c.entries, key)
				}
			}
			c.mutex.Unlock()
		case <-c.stopChan:
			return
		}
	}
}
