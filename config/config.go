package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	TokenList   TokenListFetcherConfig `yaml:"token_list"`
	Persistence PersistenceConfig      `yaml:"persistence"`
	Cache       CacheConfig            `yaml:"cache"`
	Server      ServerConfig           `yaml:"server"`
	Logging     LoggingConfig          `yaml:"logging"`
	NATS        NATSConfig             `yaml:"nats"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{Cache: DefaultCacheConfig()}
	cfg.applyDefaults()
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Config{Cache: DefaultCacheConfig()}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	c.TokenList.applyDefaults()
	c.Persistence.applyDefaults()

	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "wallet.token_list.updated"
	}
}

// Validate checks values that have no sensible default
func (c *Config) Validate() error {
	switch c.Persistence.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.Persistence.Redis.Addr == "" {
			return fmt.Errorf("persistence.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown persistence backend %q", c.Persistence.Backend)
	}

	if c.TokenList.URL == "" {
		return fmt.Errorf("token_list.url is required")
	}

	return nil
}
