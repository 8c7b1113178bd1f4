package utils_test

import (
	"fmt"
	"testing"
	"time"

	"soundwave/internal/utils"
)

func TestCacheSetGet(t *testing.T) {
	cache := utils.NewSmartCache(10, time.Minute)

	cache.Set("key1", "value1")

	value, found := cache.Get("key1")
	if !found {
		t.Fatal("Expected to find key1")
	}
	if value.(string) != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	if _, found := cache.Get("missing"); found {
		t.Error("Should not find a missing key")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := utils.NewSmartCache(10, time.Minute)

	cache.SetWithTTL("short", "value", 10*time.Millisecond)
	if _, found := cache.Get("short"); !found {
		t.Fatal("Entry should be live right after set")
	}

	time.Sleep(20 * time.Millisecond)
	if _, found := cache.Get("short"); found {
		t.Error("Entry should expire after its TTL")
	}
}

func TestCacheNoTTL(t *testing.T) {
	cache := utils.NewSmartCache(10, 0)

	cache.Set("forever", "value")
	time.Sleep(10 * time.Millisecond)
	if _, found := cache.Get("forever"); !found {
		t.Error("Zero TTL should mean no expiry")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	cache := utils.NewSmartCache(3, time.Minute)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Set("c", 3)

	// Touch "a" so "b" becomes the least recently used
	cache.Get("a")

	cache.Set("d", 4)

	if _, found := cache.Get("b"); found {
		t.Error("Least recently used entry should be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, found := cache.Get(key); !found {
			t.Errorf("Key %s should survive eviction", key)
		}
	}
}

func TestCacheUpdateInPlace(t *testing.T) {
	cache := utils.NewSmartCache(3, time.Minute)

	cache.Set("key", "old")
	cache.Set("key", "new")

	if cache.Size() != 1 {
		t.Errorf("Updating a key should not grow the cache, size %d", cache.Size())
	}
	value, _ := cache.Get("key")
	if value.(string) != "new" {
		t.Errorf("Expected updated value, got %v", value)
	}
}

func TestCacheDelete(t *testing.T) {
	cache := utils.NewSmartCache(10, time.Minute)

	cache.Set("key", "value")
	cache.Delete("key")

	if _, found := cache.Get("key"); found {
		t.Error("Deleted key should be gone")
	}
}

func TestCacheClear(t *testing.T) {
	cache := utils.NewSmartCache(10, time.Minute)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Clear()

	if cache.Size() != 0 {
		t.Errorf("Clear should empty the cache, size %d", cache.Size())
	}
}

func TestCacheStats(t *testing.T) {
	cache := utils.NewSmartCache(2, time.Minute)

	cache.Set("a", 1)
	cache.Get("a")       // hit
	cache.Get("missing") // miss
	cache.Set("b", 2)
	cache.Set("c", 3) // evicts

	hits, misses, evictions, size := cache.Stats()
	if hits != 1 {
		t.Errorf("Expected 1 hit, got %d", hits)
	}
	if misses != 1 {
		t.Errorf("Expected 1 miss, got %d", misses)
	}
	if evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", evictions)
	}
	if size != 2 {
		t.Errorf("Expected size 2, got %d", size)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := utils.NewSmartCache(100, time.Minute)
	done := make(chan bool, 100)

	for i := 0; i < 50; i++ {
		go func(n int) {
			cache.Set(fmt.Sprintf("key%d", n), n)
			done <- true
		}(i)
	}
	for i := 0; i < 50; i++ {
		go func(n int) {
			cache.Get(fmt.Sprintf("key%d", n))
			done <- true
		}(i)
	}

	for i := 0; i < 100; i++ {
		<-done
	}
}
