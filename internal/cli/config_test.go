package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"EmptyPath", ""},
		{"MissingFile", filepath.Join(t.TempDir(), "nope.toml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.path)
			if err != nil {
				t.Fatalf("LoadConfig() error: %v", err)
			}
			if cfg.Cache.Backend != CacheBackendFile {
				t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, CacheBackendFile)
			}
			if cfg.API.Listen != ":8080" {
				t.Errorf("API.Listen = %q, want :8080", cfg.API.Listen)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[cache]
backend = "redis"
redis_addr = "cache.internal:6379"

[mongo]
uri = "mongodb://db.internal:27017"
database = "boards"

[api]
listen = ":9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Cache.Backend != CacheBackendRedis || cfg.Cache.RedisAddr != "cache.internal:6379" {
		t.Errorf("cache config = %+v", cfg.Cache)
	}
	if cfg.Mongo.URI != "mongodb://db.internal:27017" || cfg.Mongo.Database != "boards" {
		t.Errorf("mongo config = %+v", cfg.Mongo)
	}
	if cfg.API.Listen != ":9000" {
		t.Errorf("API.Listen = %q, want :9000", cfg.API.Listen)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nlisten = \":9999\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Listen != ":9999" {
		t.Errorf("API.Listen = %q, want :9999", cfg.API.Listen)
	}
	if cfg.Cache.Backend != CacheBackendFile {
		t.Errorf("unset sections lost defaults: %+v", cfg.Cache)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"MalformedTOML", "[cache\nbackend="},
		{"UnknownBackend", "[cache]\nbackend = \"memcached\"\n"},
		{"RedisWithoutAddr", "[cache]\nbackend = \"redis\"\nredis_addr = \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig() accepted invalid config")
			}
		})
	}
}
