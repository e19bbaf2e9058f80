package e2etest

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/core"
)

// TestEnv represents a test environment
type TestEnv struct {
	Registry      *core.Registry
	Components    *core.Components
	Origin        *MockOrigin
	ConfigPath    string
	CacheDir      string
	ServerBaseURL string
}

// SetupTest starts the whole service against origin, persisting into cacheDir
func SetupTest(t *testing.T, origin *MockOrigin, cacheDir string) *TestEnv {
	t.Helper()

	cfg, configPath, err := loadTestConfig(origin.URL(), cacheDir)
	require.NoError(t, err, "Failed to load test config")

	registry, components, err := core.Setup(context.Background(), cfg, zap.NewNop())
	if err != nil {
		cleanupTestConfig(configPath)
		t.Fatalf("Failed to setup services: %v", err)
	}

	if err := registry.StartAll(context.Background()); err != nil {
		cleanupTestConfig(configPath)
		t.Fatalf("Failed to start services: %v", err)
	}

	_, port, err := net.SplitHostPort(components.Server.Addr())
	require.NoError(t, err)

	env := &TestEnv{
		Registry:      registry,
		Components:    components,
		Origin:        origin,
		ConfigPath:    configPath,
		CacheDir:      cacheDir,
		ServerBaseURL: "http://127.0.0.1:" + port,
	}

	// Wait for the startup cache load to finish
	require.Eventually(t, func() bool {
		resp, err := http.Get(env.ServerBaseURL + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK && components.TokenList.Healthy()
	}, 5*time.Second, 50*time.Millisecond, "server not ready")

	return env
}

// TearDown releases test environment resources
func (env *TestEnv) TearDown() {
	if env.Registry != nil {
		env.Registry.StopAll()
	}
	if env.ConfigPath != "" {
		cleanupTestConfig(env.ConfigPath)
	}
}
