package cache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/status-im/wallet-token-lists/config"
)

// Service implements Cache interface with go-cache only
type Service struct {
	goCache *GoCache
	config  config.CacheConfig
	group   singleflight.Group
}

// NewService creates a new cache service with the given configuration
func NewService(cfg config.CacheConfig) *Service {
	var goCache *GoCache

	if cfg.GoCache.Enabled {
		goCache = NewGoCache(cfg.GoCache.DefaultExpiration, cfg.GoCache.CleanupInterval)
	}

	return &Service{
		goCache: goCache,
		config:  cfg,
	}
}

// Start implements core.Interface
func (s *Service) Start(ctx context.Context) error {
	return nil
}

// Stop implements core.Interface
func (s *Service) Stop() {
	s.Clear()
}

// GetOrLoad retrieves the value for key from local cache or renders it using loader.
// With the cache disabled every call goes to the loader.
func (s *Service) GetOrLoad(key string, loader LoaderFunc, ttl time.Duration) ([]byte, error) {
	if s.goCache == nil {
		return s.load(key, loader)
	}

	if data, ok := s.goCache.Get(key); ok {
		return data, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if data, ok := s.goCache.Get(key); ok {
			return data, nil
		}
		data, err := s.load(key, loader)
		if err != nil {
			return nil, err
		}
		s.goCache.Set(key, data, ttl)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *Service) load(key string, loader LoaderFunc) ([]byte, error) {
	data, err := loader(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return data, nil
}

// Get retrieves the value for key from local cache
func (s *Service) Get(key string) ([]byte, bool) {
	if s.goCache == nil {
		return nil, false
	}
	return s.goCache.Get(key)
}

// Set stores value in local cache
func (s *Service) Set(key string, value []byte, ttl time.Duration) {
	if s.goCache != nil {
		s.goCache.Set(key, value, ttl)
	}
}

// Stats returns statistics about the cache service
func (s *Service) Stats() ServiceStats {
	stats := ServiceStats{Enabled: s.goCache != nil}
	if s.goCache != nil {
		stats.GoCacheItems = s.goCache.ItemCount()
	}
	return stats
}

// ServiceStats represents cache service statistics
type ServiceStats struct {
	GoCacheItems int  // Number of items in go-cache
	Enabled      bool // Whether go-cache is enabled
}

// Delete removes items from cache by keys
func (s *Service) Delete(keys ...string) {
	if s.goCache != nil {
		s.goCache.Delete(keys...)
	}
}

// Clear removes all items from cache
func (s *Service) Clear() {
	if s.goCache != nil {
		s.goCache.Clear()
	}
}
