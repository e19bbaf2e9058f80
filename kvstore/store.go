package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/config"
)

//go:generate mockgen -destination=mocks/store.go . Store

var (
	// ErrNotFound means the named blob has never been written
	ErrNotFound = errors.New("kvstore: not found")
	// ErrCorrupt means the named blob exists but does not decode
	ErrCorrupt = errors.New("kvstore: corrupt content")
)

// Store reads and writes named JSON blobs
type Store interface {
	// ReadJSON decodes the blob stored under name into v.
	// Returns ErrNotFound or ErrCorrupt (wrapped) on the respective conditions.
	ReadJSON(ctx context.Context, name string, v interface{}) error
	// WriteJSON encodes v and stores it under name, replacing any previous blob
	WriteJSON(ctx context.Context, name string, v interface{}) error
}

// New creates the Store selected by cfg.Backend.
// The returned store may also implement io.Closer.
func New(ctx context.Context, cfg config.PersistenceConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		store, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			logger.Info("Using file persistence", zap.String("dir", store.Dir()))
		}
		return store, nil
	case config.BackendRedis:
		store, err := NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			logger.Info("Using redis persistence", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))
		}
		return store, nil
	case config.BackendMemory:
		if logger != nil {
			logger.Warn("Using in-memory persistence, cached token list will not survive restarts")
		}
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
	}
}

func decode(name string, data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	return nil
}
