package e2etest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockOrigin serves a token list document the way the remote origin does,
// honoring If-None-Match
type MockOrigin struct {
	server *httptest.Server

	mu          sync.RWMutex
	document    string
	etag        string
	status      int
	requests    int
	notModified int
}

// NewMockOrigin starts an origin serving document under etag
func NewMockOrigin(document, etag string) *MockOrigin {
	mo := &MockOrigin{
		document: document,
		etag:     etag,
		status:   http.StatusOK,
	}
	mo.server = httptest.NewServer(http.HandlerFunc(mo.handleRequest))
	return mo
}

func (mo *MockOrigin) handleRequest(w http.ResponseWriter, r *http.Request) {
	mo.mu.Lock()
	mo.requests++
	document, etag, status := mo.document, mo.etag, mo.status
	if status == http.StatusOK && etag != "" && r.Header.Get("If-None-Match") == etag {
		mo.notModified++
		mo.mu.Unlock()
		w.WriteHeader(http.StatusNotModified)
		return
	}
	mo.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(document))
}

// SetDocument replaces the served document
func (mo *MockOrigin) SetDocument(document, etag string) {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	mo.document = document
	mo.etag = etag
}

// SetStatus makes the origin answer every request with status
func (mo *MockOrigin) SetStatus(status int) {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	mo.status = status
}

// Requests returns the total and the 304 request counts
func (mo *MockOrigin) Requests() (total, notModified int) {
	mo.mu.RLock()
	defer mo.mu.RUnlock()
	return mo.requests, mo.notModified
}

func (mo *MockOrigin) URL() string {
	return mo.server.URL + "/token-list/rainbow-token-list.json"
}

func (mo *MockOrigin) Close() {
	mo.server.Close()
}

// tokenListDocument renders a list with the given timestamp. Every entry of
// curated becomes a curated token, every entry of plain a non-curated one.
func tokenListDocument(timestamp time.Time, curated, plain map[string]string) string {
	tokens := ""
	add := func(address, symbol string, isCurated bool) {
		if tokens != "" {
			tokens += ","
		}
		tokens += fmt.Sprintf(`{"address":%q,"chainId":1,"decimals":18,"name":%q,"symbol":%q,"extensions":{"isRainbowCurated":%t}}`,
			address, symbol+" Token", symbol, isCurated)
	}
	for address, symbol := range curated {
		add(address, symbol, true)
	}
	for address, symbol := range plain {
		add(address, symbol, false)
	}
	return fmt.Sprintf(`{"name":"Rainbow Token List","timestamp":%q,"version":{"major":1,"minor":0,"patch":0},"tokens":[%s]}`,
		timestamp.UTC().Format(time.RFC3339), tokens)
}
