package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/cache"
	"github.com/status-im/wallet-token-lists/config"
	"github.com/status-im/wallet-token-lists/events"
	"github.com/status-im/wallet-token-lists/tokenlist"
)

const (
	usdcAddress = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	shibAddress = "0x95ad61b0a150d79219dcf64e1e6cc01f0b64c4ce"
)

type fakeTokenList struct {
	mu         sync.Mutex
	idx        *tokenlist.Indices
	healthy    bool
	outcome    tokenlist.Outcome
	refreshErr error
	refreshes  int
	subs       *events.SubscriptionManager[*tokenlist.Indices]
}

func newFakeTokenList(doc *tokenlist.Document) *fakeTokenList {
	return &fakeTokenList{
		idx:     tokenlist.BuildIndices(doc),
		healthy: true,
		outcome: tokenlist.OutcomeNoChange,
		subs:    events.NewSubscriptionManager[*tokenlist.Indices](),
	}
}

func (f *fakeTokenList) Snapshot() *tokenlist.Indices {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idx
}

func (f *fakeTokenList) Refresh(ctx context.Context) (tokenlist.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.outcome, f.refreshErr
}

func (f *fakeTokenList) SubscribeOnUpdate() events.ISubscription[*tokenlist.Indices] {
	return f.subs.Subscribe()
}

func (f *fakeTokenList) Healthy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy
}

func (f *fakeTokenList) adopt(doc *tokenlist.Document) {
	idx := tokenlist.BuildIndices(doc)
	f.mu.Lock()
	f.idx = idx
	f.mu.Unlock()
	f.subs.Emit(context.Background(), idx)
}

func testTimestamp(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func testDocument(timestamp string) *tokenlist.Document {
	return &tokenlist.Document{
		Name:      "test",
		Timestamp: testTimestamp(timestamp),
		Tokens: []tokenlist.RawToken{
			{
				Address:    "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
				ChainID:    1,
				Decimals:   6,
				Name:       "USD Coin",
				Symbol:     "USDC",
				Extensions: map[string]interface{}{tokenlist.ExtensionCurated: true},
			},
			{
				Address:  "0x95aD61b0a150d79219dCF64E1E6Cc01f0B64C4cE",
				ChainID:  1,
				Decimals: 18,
				Name:     "Shiba Inu",
				Symbol:   "SHIB",
			},
		},
	}
}

func newTestServer(t *testing.T, tokenList *fakeTokenList, responseCache cache.Cache) *Server {
	t.Helper()
	server := New(config.ServerConfig{Port: "0"}, tokenList, responseCache, zap.NewNop())
	t.Cleanup(server.Stop)
	return server
}

func newResponseCache(t *testing.T) *cache.Service {
	t.Helper()
	svc := cache.NewService(config.DefaultCacheConfig())
	t.Cleanup(svc.Stop)
	return svc
}

func doRequest(handler http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeTokens(t *testing.T, body []byte) tokensResponse {
	t.Helper()
	var resp tokensResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func addresses(tokens []tokenlist.Token) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		result = append(result, token.Address)
	}
	return result
}

func TestHandleTokens(t *testing.T) {
	tokenList := newFakeTokenList(testDocument("2024-02-01T00:00:00Z"))
	router := newTestServer(t, tokenList, newResponseCache(t)).Router()

	first := doRequest(router, http.MethodGet, "/api/v1/tokens", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, cacheStatusMiss, first.Header().Get("Cache-Status"))

	resp := decodeTokens(t, first.Body.Bytes())
	assert.Equal(t, []string{tokenlist.NativeAddress, usdcAddress, shibAddress}, addresses(resp.Tokens))
	assert.Equal(t, tokenList.Snapshot().Version(), resp.Version)

	second := doRequest(router, http.MethodGet, "/api/v1/tokens", nil)
	assert.Equal(t, cacheStatusHit, second.Header().Get("Cache-Status"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get("ETag"), second.Header().Get("ETag"))

	notModified := doRequest(router, http.MethodGet, "/api/v1/tokens", map[string]string{
		"If-None-Match": first.Header().Get("ETag"),
	})
	assert.Equal(t, http.StatusNotModified, notModified.Code)
}

func TestHandleTokens_NewSnapshotChangesBody(t *testing.T) {
	tokenList := newFakeTokenList(testDocument("2024-02-01T00:00:00Z"))
	router := newTestServer(t, tokenList, newResponseCache(t)).Router()

	before := doRequest(router, http.MethodGet, "/api/v1/tokens", nil)

	newer := testDocument("2024-03-01T00:00:00Z")
	newer.Tokens = newer.Tokens[:1]
	tokenList.adopt(newer)

	after := doRequest(router, http.MethodGet, "/api/v1/tokens", nil)
	assert.Equal(t, cacheStatusMiss, after.Header().Get("Cache-Status"))
	assert.NotEqual(t, before.Header().Get("ETag"), after.Header().Get("ETag"))
	assert.Equal(t, []string{tokenlist.NativeAddress, usdcAddress}, addresses(decodeTokens(t, after.Body.Bytes()).Tokens))
}

func TestHandleTokens_AddressFilter(t *testing.T) {
	router := newTestServer(t, newFakeTokenList(testDocument("2024-02-01T00:00:00Z")), nil).Router()

	recorder := doRequest(router, http.MethodGet,
		"/api/v1/tokens?addresses=0x95AD61B0A150D79219DCF64E1E6CC01F0B64C4CE,0xdead,ETH", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{shibAddress, tokenlist.NativeAddress}, addresses(decodeTokens(t, recorder.Body.Bytes()).Tokens))
}

func TestHandleCuratedTokens(t *testing.T) {
	router := newTestServer(t, newFakeTokenList(testDocument("2024-02-01T00:00:00Z")), newResponseCache(t)).Router()

	recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/curated", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{tokenlist.NativeAddress, usdcAddress}, addresses(decodeTokens(t, recorder.Body.Bytes()).Tokens))
}

func TestHandleSafeNames(t *testing.T) {
	router := newTestServer(t, newFakeTokenList(testDocument("2024-02-01T00:00:00Z")), newResponseCache(t)).Router()

	recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/safe_names", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp safeNamesResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, map[string]string{
		"ethereum": "Ethereum", "eth": "ETH",
		"usd coin": "USD Coin", "usdc": "USDC",
	}, resp.SafeNames)

	found := doRequest(router, http.MethodGet, "/api/v1/tokens/safe_names/Usdc", nil)
	require.Equal(t, http.StatusOK, found.Code)
	assert.JSONEq(t, `{"name":"Usdc","safe_name":"USDC"}`, found.Body.String())

	missing := doRequest(router, http.MethodGet, "/api/v1/tokens/safe_names/shib", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestHandleToken(t *testing.T) {
	router := newTestServer(t, newFakeTokenList(testDocument("2024-02-01T00:00:00Z")), nil).Router()

	tests := []struct {
		name     string
		address  string
		status   int
		curated  bool
		expected string
	}{
		{name: "curated token by checksummed address", address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", status: http.StatusOK, curated: true, expected: usdcAddress},
		{name: "non curated token", address: shibAddress, status: http.StatusOK, expected: shibAddress},
		{name: "native token", address: "ETH", status: http.StatusOK, curated: true, expected: tokenlist.NativeAddress},
		{name: "unknown token", address: "0xdead", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/"+tt.address, nil)
			require.Equal(t, tt.status, recorder.Code)
			if tt.status != http.StatusOK {
				return
			}

			var resp tokenResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
			assert.Equal(t, tt.expected, resp.Token.Address)
			assert.Equal(t, tt.curated, resp.Curated)
		})
	}
}

func TestHandleRefresh(t *testing.T) {
	tests := []struct {
		name    string
		outcome tokenlist.Outcome
		err     error
		status  int
	}{
		{name: "updated", outcome: tokenlist.OutcomeUpdated, status: http.StatusOK},
		{name: "no change", outcome: tokenlist.OutcomeNoChange, status: http.StatusOK},
		{name: "throttled", err: tokenlist.ErrThrottled, status: http.StatusTooManyRequests},
		{name: "failed", outcome: tokenlist.OutcomeFailed, err: errors.New("origin down"), status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenList := newFakeTokenList(testDocument("2024-02-01T00:00:00Z"))
			tokenList.outcome = tt.outcome
			tokenList.refreshErr = tt.err
			router := newTestServer(t, tokenList, nil).Router()

			recorder := doRequest(router, http.MethodPost, "/api/v1/tokens/refresh", nil)

			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, 1, tokenList.refreshes)
			if tt.status == http.StatusOK {
				var resp refreshResponse
				require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
				assert.Equal(t, tt.outcome, resp.Outcome)
			}
		})
	}

	t.Run("GET is not allowed", func(t *testing.T) {
		router := newTestServer(t, newFakeTokenList(nil), nil).Router()
		recorder := doRequest(router, http.MethodGet, "/api/v1/tokens/refresh", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	tokenList := newFakeTokenList(testDocument("2024-02-01T00:00:00Z"))
	server := newTestServer(t, tokenList, nil).
		WithHealthCheck("nats", func(ctx context.Context) error { return errors.New("disconnected") })

	recorder := doRequest(server.Router(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"degraded","services":{"token_list":"up","nats":"down"}}`, recorder.Body.String())

	tokenList.mu.Lock()
	tokenList.healthy = false
	tokenList.mu.Unlock()

	healthy := newTestServer(t, tokenList, nil)
	recorder = doRequest(healthy.Router(), http.MethodGet, "/health", nil)
	assert.JSONEq(t, `{"status":"ok","services":{"token_list":"unknown"}}`, recorder.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestServer(t, newFakeTokenList(nil), nil).Router()

	recorder := doRequest(router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestHandleUpdates(t *testing.T) {
	tokenList := newFakeTokenList(testDocument("2024-02-01T00:00:00Z"))
	server := newTestServer(t, tokenList, nil)

	httpServer := httptest.NewServer(server.Router())
	defer httpServer.Close()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/api/v1/tokens/updates"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var initial updateMessage
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, tokenList.Snapshot().Version(), initial.Version)
	assert.Len(t, initial.Tokens, 3)

	// the subscription is registered after the upgrade completes
	require.Eventually(t, func() bool { return tokenList.subs.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	newer := testDocument("2024-03-01T00:00:00Z")
	tokenList.adopt(newer)

	var update updateMessage
	require.NoError(t, conn.ReadJSON(&update))
	require.NotNil(t, update.Timestamp)
	assert.True(t, newer.Timestamp.Equal(*update.Timestamp))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return tokenList.subs.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_StartStop(t *testing.T) {
	server := New(config.ServerConfig{Port: "0"}, newFakeTokenList(nil), nil, zap.NewNop())
	require.NoError(t, server.Start(context.Background()))

	resp, err := http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	server.Stop()

	_, err = http.Get("http://" + server.Addr() + "/health")
	assert.Error(t, err)
}
