package pubsub

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/broadcaster.go . Broadcaster

// Broadcaster publishes messages to other processes
type Broadcaster interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Health(ctx context.Context) error
}

// TokenListUpdated announces a newly adopted token list
type TokenListUpdated struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Version   string     `json:"version"`
	Tokens    int        `json:"tokens"`
	Curated   int        `json:"curated"`
	SafeNames int        `json:"safe_names"`
}
