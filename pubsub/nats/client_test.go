package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/config"
	"github.com/status-im/wallet-token-lists/pubsub"
)

// ------------------------ tests without a connection ------------------------

func TestNew_NilConfig(t *testing.T) {
	client, err := New(nil, zap.NewNop())

	assert.Nil(t, client)
	assert.EqualError(t, err, "nats config is required")
}

func TestNew_EmptyURL(t *testing.T) {
	client, err := New(&config.NATSConfig{}, zap.NewNop())

	assert.Nil(t, client)
	assert.EqualError(t, err, "nats url is required")
}

func TestNilConnection(t *testing.T) {
	client := &Client{log: zap.NewNop()}

	assert.False(t, client.Ready())
	assert.Equal(t, nats.DISCONNECTED, client.Status())
	assert.Error(t, client.Health(context.Background()))
	assert.Error(t, client.Publish(context.Background(), "subject", 1))
	assert.NoError(t, client.Close())
}

// ------------------------ tests with in-memory nats ------------------------

func runTestWithInMemoryNATS(t *testing.T, testFunc func(*testing.T, *server.Server, string)) {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1 // random port
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	testFunc(t, s, s.ClientURL())
}

func TestPublish_RoundTrip(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(&config.NATSConfig{URL: url}, zap.NewNop())
		require.NoError(t, err)
		defer client.Close()

		assert.True(t, client.Ready())
		assert.NoError(t, client.Health(context.Background()))

		subscriber, err := nats.Connect(url)
		require.NoError(t, err)
		defer subscriber.Close()

		messages := make(chan *nats.Msg, 1)
		sub, err := subscriber.ChanSubscribe("wallet.token_list.updated", messages)
		require.NoError(t, err)
		defer sub.Unsubscribe()
		require.NoError(t, subscriber.Flush())

		ts := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		event := pubsub.TokenListUpdated{Timestamp: &ts, Version: "1", Tokens: 10, Curated: 4, SafeNames: 8}
		require.NoError(t, client.Publish(context.Background(), "wallet.token_list.updated", event))

		select {
		case msg := <-messages:
			var got pubsub.TokenListUpdated
			require.NoError(t, json.Unmarshal(msg.Data, &got))
			assert.Equal(t, event.Version, got.Version)
			assert.Equal(t, event.Tokens, got.Tokens)
			assert.True(t, got.Timestamp.Equal(ts))
		case <-time.After(2 * time.Second):
			t.Fatal("message not received")
		}
	})
}

func TestPublish_CancelledContext(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(&config.NATSConfig{URL: url}, zap.NewNop())
		require.NoError(t, err)
		defer client.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, client.Publish(ctx, "subject", 1), context.Canceled)
	})
}

func TestPublish_UnencodablePayload(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(&config.NATSConfig{URL: url}, zap.NewNop())
		require.NoError(t, err)
		defer client.Close()

		assert.Error(t, client.Publish(context.Background(), "subject", make(chan int)))
	})
}

func TestClose(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(&config.NATSConfig{URL: url}, zap.NewNop())
		require.NoError(t, err)

		require.NoError(t, client.Close())

		require.Eventually(t, func() bool {
			return client.Status() == nats.CLOSED
		}, 2*time.Second, 10*time.Millisecond)
		assert.False(t, client.Ready())
		assert.Error(t, client.Health(context.Background()))

		// closing twice is a no-op
		assert.NoError(t, client.Close())
	})
}
