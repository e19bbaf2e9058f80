package core

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/api"
	"github.com/status-im/wallet-token-lists/cache"
	"github.com/status-im/wallet-token-lists/config"
	"github.com/status-im/wallet-token-lists/kvstore"
	"github.com/status-im/wallet-token-lists/logging"
	"github.com/status-im/wallet-token-lists/metrics"
	natsclient "github.com/status-im/wallet-token-lists/pubsub/nats"
	"github.com/status-im/wallet-token-lists/tokenlist"
)

// Components are the services built by Setup
type Components struct {
	TokenList *tokenlist.Service
	Cache     *cache.Service
	Server    *api.Server
	NATS      *natsclient.Client
}

// Setup creates and registers all services
func Setup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Registry, *Components, error) {
	logger = logging.OrNop(logger)
	registry := NewRegistry(logger.Named("registry"))
	components := &Components{}

	// Response cache for the read API
	components.Cache = cache.NewService(cfg.Cache)
	registry.Register(components.Cache)

	kv, err := kvstore.New(ctx, cfg.Persistence, logger.Named("kvstore"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create persistence backend: %w", err)
	}
	if closer, ok := kv.(io.Closer); ok {
		registry.RegisterCloser("kvstore", closer)
	}

	baseline, err := tokenlist.LoadBaseline(cfg.TokenList.BaselineFile)
	if err != nil {
		closeIfCloser(kv, logger)
		return nil, nil, fmt.Errorf("failed to load baseline token list: %w", err)
	}

	fetcher := tokenlist.NewHTTPFetcher(cfg.TokenList, metrics.NewMetricsWriter(metrics.ServiceTokenList), logger.Named("fetcher"))
	components.TokenList = tokenlist.NewService(cfg.TokenList, baseline, fetcher, kv, logger.Named("tokenlist"))

	components.Server = api.New(cfg.Server, components.TokenList, components.Cache, logger.Named("api"))

	// Optional broadcast of adoptions to other processes
	if cfg.NATS.URL != "" {
		client, err := natsclient.New(&cfg.NATS, logger.Named("nats"))
		if err != nil {
			closeIfCloser(kv, logger)
			return nil, nil, err
		}
		components.NATS = client
		registry.RegisterCloser("nats", client)
		registry.Register(NewUpdateBroadcaster(components.TokenList, client, cfg.NATS.Subject, logger.Named("broadcast")))
		components.Server.WithHealthCheck("nats", client.Health)
	}

	registry.Register(components.TokenList)
	registry.Register(components.Server)

	return registry, components, nil
}

func closeIfCloser(v interface{}, logger *zap.Logger) {
	if closer, ok := v.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
}
