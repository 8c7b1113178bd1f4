package utils

import (
	"container/list"
	"sync"
	"time"
)

// CacheEntry represents an entry in the cache with TTL
type CacheEntry struct {
	Key        string
	Value      interface{}
	ExpiresAt  time.Time
	accessTime time.Time
}

// IsExpired returns true if the entry has expired
func (e *CacheEntry) IsExpired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// SmartCache is an LRU cache with TTL support
type SmartCache struct {
	maxSize   int
	ttl       time.Duration
	items     map[string]*list.Element
	lruList   *list.List
	mu        sync.RWMutex
	hits      int64
	misses    int64
	evictions int64
}

// NewSmartCache creates a new cache with LRU eviction and TTL
func NewSmartCache(maxSize int, ttl time.Duration) *SmartCache {
	return &SmartCache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lruList: list.New(),
	}
}

// Get retrieves a value from the cache
func (c *SmartCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		c.misses++
		return nil, false
	}

	entry := elem.Value.(*CacheEntry)

	if entry.IsExpired() {
		c.removeLocked(key)
		c.misses++
		return nil, false
	}

	entry.accessTime = time.Now()
	c.lruList.MoveToFront(elem)
	c.hits++

	return entry.Value, true
}

// Set stores a value with the cache's default TTL
func (c *SmartCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a specific TTL
func (c *SmartCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Update in place if the key already exists
	if elem, exists := c.items[key]; exists {
		entry := elem.Value.(*CacheEntry)
		entry.Value = value
		entry.accessTime = time.Now()
		if ttl > 0 {
			entry.ExpiresAt = time.Now().Add(ttl)
		} else {
			entry.ExpiresAt = time.Time{}
		}
		c.lruList.MoveToFront(elem)
		return
	}

	// Evict least recently used when full
	for len(c.items) >= c.maxSize && c.maxSize > 0 {
		oldest := c.lruList.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*CacheEntry).Key)
		c.evictions++
	}

	entry := &CacheEntry{
		Key:        key,
		Value:      value,
		accessTime: time.Now(),
	}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	c.items[key] = c.lruList.PushFront(entry)
}

// Delete removes a key from the cache
func (c *SmartCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// removeLocked removes an entry; caller holds the lock
func (c *SmartCache) removeLocked(key string) {
	if elem, exists := c.items[key]; exists {
		c.lruList.Remove(elem)
		delete(c.items, key)
	}
}

// Clear removes all entries
func (c *SmartCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.lruList.Init()
}

// Size returns the number of cached entries
func (c *SmartCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns hit/miss/eviction counters and current size
func (c *SmartCache) Stats() (hits, misses, evictions int64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, c.evictions, len(c.items)
}
