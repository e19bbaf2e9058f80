package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/status-im/wallet-token-lists/config"
	"github.com/status-im/wallet-token-lists/core"
	"github.com/status-im/wallet-token-lists/logging"
)

func main() {
	app := &cli.App{
		Name:  "wallet-token-lists",
		Usage: "Serve the curated wallet token list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				EnvVars: []string{"CONFIG"},
				Value:   "config.yaml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose logging",
				EnvVars: []string{"VERBOSE"},
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "HTTP port, overrides server.port",
				EnvVars: []string{"PORT"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("verbose") {
		cfg.Logging.Verbose = c.Bool("verbose")
	}
	if port := c.String("port"); port != "" {
		cfg.Server.Port = port
	}

	logger, err := logging.NewLogger(cfg.Logging.Verbose, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	logger.Info("config",
		zap.String("token_list_url", cfg.TokenList.URL),
		zap.Duration("update_interval", cfg.TokenList.UpdateInterval),
		zap.Duration("min_refresh_interval", cfg.TokenList.MinRefreshInterval),
		zap.String("persistence", cfg.Persistence.Backend),
		zap.String("port", cfg.Server.Port),
		zap.Bool("nats", cfg.NATS.URL != ""),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, components, err := core.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := registry.StartAll(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-components.TokenList.Store().CacheLoaded():
			snapshot := components.TokenList.Snapshot()
			logger.Info("Token list ready",
				zap.Timep("timestamp", snapshot.Timestamp()),
				zap.Int("tokens", len(snapshot.List)),
				zap.Int("curated", len(snapshot.Curated)))
		case <-gctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal, stopping services")
		registry.StopAll()
		return nil
	})

	return g.Wait()
}
