package tokenlist

import (
	"context"

	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/config"
	"github.com/status-im/wallet-token-lists/events"
	"github.com/status-im/wallet-token-lists/kvstore"
	"github.com/status-im/wallet-token-lists/logging"
	"github.com/status-im/wallet-token-lists/metrics"
)

// Service runs the token list store together with its refresh policy
type Service struct {
	store           *Store
	periodicUpdater *PeriodicUpdater
	logger          *zap.Logger
}

func NewService(cfg config.TokenListFetcherConfig, baseline *Document, fetcher Fetcher, kv kvstore.Store, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	metricsWriter := metrics.NewMetricsWriter(metrics.ServiceTokenList)

	store := NewStore(baseline, fetcher, kv, metricsWriter, logger.Named("store"))

	return &Service{
		store:           store,
		periodicUpdater: NewPeriodicUpdater(cfg, store, logger.Named("updater")),
		logger:          logger,
	}
}

func (s *Service) Start(ctx context.Context) error {
	if err := s.store.Start(ctx); err != nil {
		return err
	}
	return s.periodicUpdater.Start(ctx)
}

func (s *Service) Stop() {
	s.periodicUpdater.Stop()
	s.store.Stop()
}

// Healthy reports whether the startup cache load has finished
func (s *Service) Healthy() bool {
	select {
	case <-s.store.CacheLoaded():
		return len(s.store.FullList()) > 0
	default:
		return false
	}
}

// Store returns the underlying store
func (s *Service) Store() *Store {
	return s.store
}

// Snapshot returns the current indices
func (s *Service) Snapshot() *Indices {
	return s.store.Snapshot()
}

// Refresh runs an on-demand update, subject to throttling
func (s *Service) Refresh(ctx context.Context) (Outcome, error) {
	return s.periodicUpdater.Trigger(ctx)
}

// SubscribeOnUpdate delivers the new indices after every adopted document
func (s *Service) SubscribeOnUpdate() events.ISubscription[*Indices] {
	return s.store.SubscribeOnUpdate()
}
