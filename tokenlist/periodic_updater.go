package tokenlist

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/status-im/wallet-token-lists/config"
	"github.com/status-im/wallet-token-lists/logging"
	"github.com/status-im/wallet-token-lists/scheduler"
)

// ErrThrottled is returned by Trigger when the previous on-demand refresh was too recent
var ErrThrottled = errors.New("token list refresh throttled")

// PeriodicUpdater decides when the store refreshes: on a fixed interval and
// on demand, with on-demand refreshes limited to one per min_refresh_interval.
type PeriodicUpdater struct {
	updater  Updater
	interval time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger

	scheduler *scheduler.Scheduler
	lastOK    atomic.Int64 // unix nanos
}

// NewPeriodicUpdater creates a new periodic updater
func NewPeriodicUpdater(cfg config.TokenListFetcherConfig, updater Updater, logger *zap.Logger) *PeriodicUpdater {
	var limiter *rate.Limiter
	if cfg.MinRefreshInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.MinRefreshInterval), 1)
	}

	return &PeriodicUpdater{
		updater:  updater,
		interval: cfg.UpdateInterval,
		limiter:  limiter,
		logger:   logging.OrNop(logger),
	}
}

// Start begins periodic updates, the first one immediately
func (u *PeriodicUpdater) Start(ctx context.Context) error {
	if u.interval <= 0 {
		u.logger.Info("Periodic token list updates disabled", zap.Duration("interval", u.interval))
		return nil
	}

	u.scheduler = scheduler.New("token-list-update", u.interval, func(ctx context.Context) {
		outcome, err := u.update(ctx)
		if err != nil {
			u.logger.Warn("Periodic token list update failed", zap.Error(err))
			return
		}
		u.logger.Debug("Periodic token list update", zap.String("outcome", string(outcome)))
	}, u.logger)

	u.scheduler.Start(ctx, true)
	return nil
}

// Stop stops periodic updates
func (u *PeriodicUpdater) Stop() {
	if u.scheduler != nil {
		u.scheduler.Stop()
	}
}

// Trigger requests an immediate refresh. It returns ErrThrottled without
// contacting the store when called again within min_refresh_interval.
func (u *PeriodicUpdater) Trigger(ctx context.Context) (Outcome, error) {
	if u.limiter != nil && !u.limiter.Allow() {
		return "", ErrThrottled
	}
	return u.update(ctx)
}

// LastSuccess returns when an update last completed without error, zero if never
func (u *PeriodicUpdater) LastSuccess() time.Time {
	nanos := u.lastOK.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

func (u *PeriodicUpdater) update(ctx context.Context) (Outcome, error) {
	outcome, err := u.updater.Update(ctx)
	if err == nil {
		u.lastOK.Store(time.Now().UnixNano())
	}
	return outcome, err
}
