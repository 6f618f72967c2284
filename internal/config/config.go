// Package config loads the loom.json project configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DefaultFile is the config filename looked up in the working directory.
const DefaultFile = "loom.json"

// Config is the project configuration.
type Config struct {
	// Name is the application name, used as the default page title.
	Name string `json:"name"`

	// Dev enables hook-order diagnostics and verbose logging.
	Dev bool `json:"dev,omitempty"`

	Server ServerConfig `json:"server"`
	Store  StoreConfig  `json:"store"`
}

// ServerConfig carries the HTTP host settings.
type ServerConfig struct {
	// Address is the listen address (default ":3000").
	Address string `json:"address,omitempty"`

	// SessionTTLSeconds evicts idle sessions after this many seconds of
	// inactivity (default 300).
	SessionTTLSeconds int `json:"session_ttl_seconds,omitempty"`

	// AllowedOrigins whitelists websocket origins. Empty means same-host.
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
}

// StoreConfig selects the session snapshot backend.
type StoreConfig struct {
	// Backend is one of "memory", "bolt", "s3" (default "memory").
	Backend string `json:"backend,omitempty"`

	// Path is the database file for the bolt backend.
	Path string `json:"path,omitempty"`

	// Bucket, Prefix and Region configure the s3 backend.
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Region string `json:"region,omitempty"`
}

// SessionTTL returns the configured TTL as a duration.
func (c *ServerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// Default returns the configuration used when no loom.json exists.
func Default() *Config {
	return &Config{
		Name: "loom",
		Server: ServerConfig{
			Address:           ":3000",
			SessionTTLSeconds: 300,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
	}
}

// Load reads path, falling back to defaults when the file is absent.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "", "memory":
	case "bolt":
		if c.Store.Path == "" {
			return fmt.Errorf("bolt backend requires store.path")
		}
	case "s3":
		if c.Store.Bucket == "" {
			return fmt.Errorf("s3 backend requires store.bucket")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Server.SessionTTLSeconds < 0 {
		return fmt.Errorf("server.session_ttl_seconds must not be negative")
	}
	return nil
}
