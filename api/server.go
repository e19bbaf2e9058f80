package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/cache"
	"github.com/status-im/wallet-token-lists/config"
	"github.com/status-im/wallet-token-lists/events"
	"github.com/status-im/wallet-token-lists/logging"
	"github.com/status-im/wallet-token-lists/metrics"
	"github.com/status-im/wallet-token-lists/tokenlist"
)

const defaultShutdownTimeout = 5 * time.Second

// TokenListService is the token list as seen by the HTTP layer
type TokenListService interface {
	Snapshot() *tokenlist.Indices
	Refresh(ctx context.Context) (tokenlist.Outcome, error)
	SubscribeOnUpdate() events.ISubscription[*tokenlist.Indices]
	Healthy() bool
}

// HealthCheck reports the state of an optional dependency
type HealthCheck func(ctx context.Context) error

type Server struct {
	port            string
	shutdownTimeout time.Duration
	tokenList       TokenListService
	responseCache   cache.Cache
	metricsWriter   *metrics.MetricsWriter
	logger          *zap.Logger
	healthChecks    map[string]HealthCheck
	upgrader        websocket.Upgrader

	server   *http.Server
	addr     string
	mu       sync.Mutex
	baseCtx  context.Context
	cancel   context.CancelFunc
	wsWaiter sync.WaitGroup
}

func New(cfg config.ServerConfig, tokenList TokenListService, responseCache cache.Cache, logger *zap.Logger) *Server {
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	return &Server{
		port:            cfg.Port,
		shutdownTimeout: shutdownTimeout,
		tokenList:       tokenList,
		responseCache:   responseCache,
		metricsWriter:   metrics.NewMetricsWriter(metrics.ServiceAPI),
		logger:          logging.OrNop(logger),
		healthChecks:    make(map[string]HealthCheck),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		baseCtx: baseCtx,
		cancel:  cancel,
	}
}

// WithHealthCheck adds a dependency to the /health report
func (s *Server) WithHealthCheck(name string, check HealthCheck) *Server {
	s.healthChecks[name] = check
	return s
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1/tokens").Subrouter()
	api.HandleFunc("", s.handleTokens).Methods(http.MethodGet)
	api.HandleFunc("/curated", s.handleCuratedTokens).Methods(http.MethodGet)
	api.HandleFunc("/safe_names", s.handleSafeNames).Methods(http.MethodGet)
	api.HandleFunc("/safe_names/{name}", s.handleSafeName).Methods(http.MethodGet)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/updates", s.handleUpdates).Methods(http.MethodGet)
	api.HandleFunc("/{address}", s.handleToken).Methods(http.MethodGet)

	router.HandleFunc("/health", s.handleHealth)
	router.Handle("/metrics", promhttp.Handler())

	return router
}

func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.addr = listener.Addr().String()
	server := s.server
	s.mu.Unlock()

	s.logger.Info("Server starting", zap.String("addr", s.addr))

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the listen address once the server is started
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop closes websocket streams and gracefully shuts down the server
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			s.logger.Error("Error shutting down server", zap.Error(err))
		}
	}
	s.wsWaiter.Wait()
}
