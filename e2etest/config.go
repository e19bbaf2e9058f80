package e2etest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/status-im/wallet-token-lists/config"
)

// createTestConfig writes a test configuration pointing at the mock origin and
// returns its path. The persisted list lives in cacheDir.
func createTestConfig(originURL, cacheDir string) (string, error) {
	tempDir, err := os.MkdirTemp("", "wallet-token-lists-test")
	if err != nil {
		return "", err
	}

	configContent := fmt.Sprintf(`
token_list:
  url: "%s"
  update_interval: 0s         # no periodic refresh, tests trigger refreshes
  min_refresh_interval: -1s   # no throttling for tests
  request_timeout: 5s
  max_retries: 1
  base_backoff: 10ms

persistence:
  backend: file
  dir: "%s"

cache:
  go_cache:
    enabled: true
    default_expiration: 1m
    cleanup_interval: 1m

server:
  port: "0"
  shutdown_timeout: 1s

logging:
  level: error
`, originURL, cacheDir)

	configPath := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		os.RemoveAll(tempDir)
		return "", err
	}

	return configPath, nil
}

// loadTestConfig creates and loads test configuration
func loadTestConfig(originURL, cacheDir string) (*config.Config, string, error) {
	configPath, err := createTestConfig(originURL, cacheDir)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		os.RemoveAll(filepath.Dir(configPath))
		return nil, "", err
	}

	return cfg, configPath, nil
}

// cleanupTestConfig removes the temporary directory with configuration
func cleanupTestConfig(configPath string) {
	os.RemoveAll(filepath.Dir(configPath))
}
