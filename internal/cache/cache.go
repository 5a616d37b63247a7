package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// Cache interface defines cache operations
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Clear()
	Size() int
}

// MemoryCache implements an in-memory cache with TTL and LRU eviction
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*cacheItem
	maxSize int
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheItem struct {
	value      interface{}
	expiration time.Time
	accessTime time.Time
}

// NewMemoryCache creates a cache and starts its cleanup loop.
// Close stops the loop.
func NewMemoryCache(maxSize int, cleanupInterval time.Duration) *MemoryCache {
	if maxSize < 1 {
		maxSize = 1
	}
	c := &MemoryCache{
		items:   make(map[string]*cacheItem),
		maxSize: maxSize,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.cleanupExpired(cleanupInterval)
	}
	return c
}

// Get retrieves a value from cache
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}

	now := c.now()
	if now.After(item.expiration) {
		delete(c.items, key)
		return nil, false
	}

	item.accessTime = now
	return item.value, true
}

// Set stores a value in cache with TTL
func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictLRU()
	}

	now := c.now()
	c.items[key] = &cacheItem{
		value:      value,
		expiration: now.Add(ttl),
		accessTime: now,
	}
}

// Delete removes a key from cache
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all items from cache
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*cacheItem)
}

// Size returns the number of items in cache
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the cleanup loop
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// evictLRU removes the least recently used item. Caller holds mu.
func (c *MemoryCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.accessTime.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.accessTime
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

func (c *MemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
		}
	}
}

func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// ReportCache stores report results under a hash of the request that
// produced them
type ReportCache struct {
	cache Cache
	ttl   time.Duration

	mu     sync.Mutex
	hits   int64
	misses int64
}

// NewReportCache creates a new report result cache
func NewReportCache(cache Cache, ttl time.Duration) *ReportCache {
	return &ReportCache{
		cache: cache,
		ttl:   ttl,
	}
}

// Get retrieves a cached value for the namespace and request
func (rc *ReportCache) Get(namespace string, request interface{}) (interface{}, bool) {
	value, found := rc.cache.Get(GenerateKey(namespace, request))

	rc.mu.Lock()
	if found {
		rc.hits++
	} else {
		rc.misses++
	}
	rc.mu.Unlock()

	return value, found
}

// Set caches a value for the namespace and request
func (rc *ReportCache) Set(namespace string, request interface{}, value interface{}) {
	rc.cache.Set(GenerateKey(namespace, request), value, rc.ttl)
}

// Clear drops every entry and resets statistics
func (rc *ReportCache) Clear() {
	rc.cache.Clear()

	rc.mu.Lock()
	rc.hits, rc.misses = 0, 0
	rc.mu.Unlock()
}

// Stats returns cache statistics
func (rc *ReportCache) Stats() CacheStats {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	stats := CacheStats{
		Hits:   rc.hits,
		Misses: rc.misses,
		Size:   rc.cache.Size(),
	}
	if total := rc.hits + rc.misses; total > 0 {
		stats.HitRate = float64(rc.hits) / float64(total)
	}
	return stats
}

// GenerateKey creates a cache key from a namespace and a JSON-encodable request
func GenerateKey(namespace string, request interface{}) string {
	data := map[string]interface{}{
		"namespace": namespace,
		"request":   request,
	}

	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}
