package config

import "time"

// Persistence backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// PersistenceConfig selects where the cached token list envelope is stored
type PersistenceConfig struct {
	// Backend is one of file, redis or memory. Defaults to file.
	Backend string `yaml:"backend"`

	// Dir is the cache directory for the file backend.
	// Empty means <user cache dir>/wallet-token-lists.
	Dir string `yaml:"dir"`

	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Prefix       string        `yaml:"prefix"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

func (c *PersistenceConfig) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "wallet-token-lists:"
	}
	if c.Redis.DialTimeout <= 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
}
