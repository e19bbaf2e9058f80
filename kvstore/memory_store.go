package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps encoded blobs in a non-expiring go-cache.
// Contents are lost when the process exits.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (s *MemoryStore) ReadJSON(ctx context.Context, name string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, found := s.cache.Get(name)
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	data, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("%w: %s: unexpected value type %T", ErrCorrupt, name, value)
	}
	return decode(name, data, v)
}

func (s *MemoryStore) WriteJSON(ctx context.Context, name string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	s.cache.Set(name, data, gocache.NoExpiration)
	return nil
}

// SetRaw stores bytes without encoding them
func (s *MemoryStore) SetRaw(name string, data []byte) {
	s.cache.Set(name, data, gocache.NoExpiration)
}
