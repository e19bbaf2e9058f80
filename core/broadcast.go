package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/events"
	"github.com/status-im/wallet-token-lists/logging"
	"github.com/status-im/wallet-token-lists/pubsub"
	"github.com/status-im/wallet-token-lists/tokenlist"
)

const publishTimeout = 5 * time.Second

// UpdateSource delivers token list snapshots after every adoption
type UpdateSource interface {
	SubscribeOnUpdate() events.ISubscription[*tokenlist.Indices]
}

// UpdateBroadcaster forwards token list adoptions to a Broadcaster
type UpdateBroadcaster struct {
	source      UpdateSource
	broadcaster pubsub.Broadcaster
	subject     string
	logger      *zap.Logger

	mu  sync.Mutex
	sub events.ISubscription[*tokenlist.Indices]
}

func NewUpdateBroadcaster(source UpdateSource, broadcaster pubsub.Broadcaster, subject string, logger *zap.Logger) *UpdateBroadcaster {
	return &UpdateBroadcaster{
		source:      source,
		broadcaster: broadcaster,
		subject:     subject,
		logger:      logging.OrNop(logger),
	}
}

// Start subscribes to the source. Register it before the source so that
// the adoption of the persisted list is broadcast too.
func (b *UpdateBroadcaster) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub != nil {
		return nil
	}
	b.sub = b.source.SubscribeOnUpdate().Watch(ctx, func(idx *tokenlist.Indices) {
		b.publish(ctx, idx)
	})
	return nil
}

func (b *UpdateBroadcaster) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub != nil {
		b.sub.Cancel()
		b.sub = nil
	}
}

func (b *UpdateBroadcaster) publish(ctx context.Context, idx *tokenlist.Indices) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	event := NewTokenListUpdated(idx)
	if err := b.broadcaster.Publish(ctx, b.subject, event); err != nil {
		b.logger.Warn("Failed to broadcast token list update",
			zap.String("subject", b.subject),
			zap.String("version", event.Version),
			zap.Error(err))
		return
	}

	b.logger.Debug("Broadcast token list update",
		zap.String("subject", b.subject),
		zap.String("version", event.Version),
		zap.Int("tokens", event.Tokens))
}

// NewTokenListUpdated summarizes a snapshot for broadcasting
func NewTokenListUpdated(idx *tokenlist.Indices) pubsub.TokenListUpdated {
	return pubsub.TokenListUpdated{
		Timestamp: idx.Timestamp(),
		Version:   idx.Version(),
		Tokens:    len(idx.List),
		Curated:   len(idx.Curated),
		SafeNames: len(idx.SafeNames),
	}
}
