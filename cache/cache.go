package cache

import "time"

// LoaderFunc renders the value for a key that is missing from the cache.
type LoaderFunc func(key string) ([]byte, error)

// Cache is a keyed store of rendered response bodies
type Cache interface {
	// GetOrLoad returns the cached value for key or renders it with loader.
	// Concurrent misses for the same key share a single loader call.
	// If ttl is 0 the cache's default expiration is used.
	GetOrLoad(key string, loader LoaderFunc, ttl time.Duration) ([]byte, error)

	// Get returns the cached value for key, if present
	Get(key string) ([]byte, bool)

	// Set stores value under key with the specified TTL
	Set(key string, value []byte, ttl time.Duration)
}
