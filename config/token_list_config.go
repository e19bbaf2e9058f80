package config

import "time"

const (
	DefaultTokenListURL       = "https://metadata.p.rainbow.me/token-list/rainbow-token-list.json"
	DefaultMinRefreshInterval = 30 * time.Second
	DefaultRequestTimeout     = 30 * time.Second
	DefaultConnectionTimeout  = 10 * time.Second
	DefaultMaxRetries         = 3
	DefaultBaseBackoff        = time.Second
	DefaultRateLimitPerMinute = 60
)

// TokenListFetcherConfig configures the remote token list source and the refresh policy
type TokenListFetcherConfig struct {
	// URL of the remote token list document
	URL string `yaml:"url"`

	// BaselineFile overrides the bundled baseline document. Empty means the embedded one.
	BaselineFile string `yaml:"baseline_file"`

	// UpdateInterval between periodic refreshes. Zero or negative disables periodic refreshes.
	UpdateInterval time.Duration `yaml:"update_interval"`

	// MinRefreshInterval throttles on-demand refresh requests. Negative disables throttling.
	MinRefreshInterval time.Duration `yaml:"min_refresh_interval"`

	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ConnectionTimeout  time.Duration `yaml:"connection_timeout"`
	MaxRetries         int           `yaml:"max_retries"`
	BaseBackoff        time.Duration `yaml:"base_backoff"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
}

func (c *TokenListFetcherConfig) applyDefaults() {
	if c.URL == "" {
		c.URL = DefaultTokenListURL
	}
	if c.MinRefreshInterval == 0 {
		c.MinRefreshInterval = DefaultMinRefreshInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = DefaultConnectionTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = DefaultBaseBackoff
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
}
