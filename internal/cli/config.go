package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Cache backend names accepted in the config file.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the on-disk CLI configuration, read from
// ~/.config/detangle/config.toml when present.
type Config struct {
	Cache CacheConfig `toml:"cache"`
	Mongo MongoConfig `toml:"mongo"`
	API   APIConfig   `toml:"api"`
}

// CacheConfig selects the layout-result cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", "none".
	Backend string `toml:"backend"`

	// RedisAddr is the host:port of the Redis server ("redis" backend).
	RedisAddr string `toml:"redis_addr"`
}

// MongoConfig configures the MongoDB board store used by --board and serve.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// APIConfig configures the serve command.
type APIConfig struct {
	Listen string `toml:"listen"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			Backend:   CacheBackendFile,
			RedisAddr: "localhost:6379",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: appName,
		},
		API: APIConfig{
			Listen: ":8080",
		},
	}
}

// LoadConfig reads the config file at path, layered over DefaultConfig.
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheBackendRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache backend %q requires redis_addr", CacheBackendRedis)
	}
	return nil
}
