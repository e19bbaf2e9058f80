package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// GoCache simple in-memory cache implementation using go-cache
type GoCache struct {
	cache *cache.Cache
}

// NewGoCache creates a new GoCache instance
// defaultExpiration: default expiration time for items
// cleanupInterval: interval for cleaning up expired items
func NewGoCache(defaultExpiration, cleanupInterval time.Duration) *GoCache {
	return &GoCache{
		cache: cache.New(defaultExpiration, cleanupInterval),
	}
}

// Get retrieves the value for key. Values that are not []byte count as missing.
func (gc *GoCache) Get(key string) ([]byte, bool) {
	value, found := gc.cache.Get(key)
	if !found {
		return nil, false
	}
	data, ok := value.([]byte)
	return data, ok
}

// Set stores a value with specified timeout
// If timeout is 0, uses cache's default expiration
// If timeout is -1 (cache.NoExpiration), item never expires
func (gc *GoCache) Set(key string, value []byte, timeout time.Duration) {
	gc.cache.Set(key, value, timeout)
}

// Delete removes items from cache by keys
func (gc *GoCache) Delete(keys ...string) {
	for _, key := range keys {
		gc.cache.Delete(key)
	}
}

// Clear removes all items from cache
func (gc *GoCache) Clear() {
	gc.cache.Flush()
}

// ItemCount returns the number of items in cache
func (gc *GoCache) ItemCount() int {
	return gc.cache.ItemCount()
}

// DeleteExpired manually triggers deletion of expired items
func (gc *GoCache) DeleteExpired() {
	gc.cache.DeleteExpired()
}
