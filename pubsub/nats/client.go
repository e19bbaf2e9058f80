package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/config"
	"github.com/status-im/wallet-token-lists/logging"
)

// Client publishes JSON messages over a NATS connection
type Client struct {
	nc  *nats.Conn
	log *zap.Logger
}

// New connects to cfg.URL. Connection failures at startup are retried in the background.
func New(cfg *config.NATSConfig, log *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("nats config is required")
	}
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}

	log = logging.OrNop(log)

	opts := []nats.Option{
		nats.Name("wallet-token-lists"),
		nats.Timeout(5 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrlRedacted()))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("Connected to NATS", zap.String("url", nc.ConnectedUrlRedacted()))

	return &Client{
		nc:  nc,
		log: log,
	}, nil
}

// Publish JSON-encodes data and publishes it on subject
func (c *Client) Publish(ctx context.Context, subject string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.nc == nil {
		return errors.New("nats connection is not initialized")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	if err := c.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Health returns an error unless the connection is established
func (c *Client) Health(ctx context.Context) error {
	if !c.Ready() {
		return fmt.Errorf("nats connection status: %s", c.Status())
	}
	return nil
}

func (c *Client) Ready() bool {
	if c.nc == nil {
		return false
	}
	return c.nc.Status() == nats.CONNECTED
}

func (c *Client) Status() nats.Status {
	if c.nc == nil {
		return nats.DISCONNECTED
	}
	return c.nc.Status()
}

// Close drains pending messages and closes the connection
func (c *Client) Close() error {
	if c.nc == nil {
		return nil
	}

	if c.nc.Status() == nats.CLOSED {
		return nil
	}

	if err := c.nc.Drain(); err != nil {
		c.log.Error("Failed to drain NATS connection", zap.Error(err))
		c.nc.Close()
		return fmt.Errorf("failed to drain connection to NATS: %w", err)
	}

	c.log.Info("NATS connection drained")
	return nil
}
