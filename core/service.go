package core

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/logging"
)

// Interface is a component with a managed lifecycle
type Interface interface {
	Start(ctx context.Context) error
	Stop()
}

// Registry starts components in registration order and stops them in reverse
type Registry struct {
	services []Interface
	started  int
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		services: make([]Interface, 0),
		logger:   logging.OrNop(logger),
	}
}

func (sr *Registry) Register(service Interface) {
	sr.services = append(sr.services, service)
}

// RegisterCloser closes c when the registry stops
func (sr *Registry) RegisterCloser(name string, c io.Closer) {
	sr.Register(&closerService{name: name, closer: c, logger: sr.logger})
}

// StartAll starts every service. When one fails, the services started
// before it are stopped again.
func (sr *Registry) StartAll(ctx context.Context) error {
	for i, service := range sr.services {
		if err := service.Start(ctx); err != nil {
			sr.started = i
			sr.StopAll()
			return fmt.Errorf("failed to start %T: %w", service, err)
		}
	}
	sr.started = len(sr.services)
	return nil
}

// StopAll stops started services in reverse order
func (sr *Registry) StopAll() {
	for i := sr.started - 1; i >= 0; i-- {
		sr.services[i].Stop()
	}
	sr.started = 0
}

type closerService struct {
	name   string
	closer io.Closer
	logger *zap.Logger
}

func (c *closerService) Start(ctx context.Context) error { return nil }

func (c *closerService) Stop() {
	if err := c.closer.Close(); err != nil {
		c.logger.Warn("Failed to close resource", zap.String("name", c.name), zap.Error(err))
	}
}
