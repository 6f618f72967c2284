package server

import (
	"log/slog"
	"time"

	"github.com/loomui/loom/pkg/middleware"
	"github.com/loomui/loom/pkg/store"
)

// Config holds server settings. Zero values fall back to defaults, so a
// partially filled Config is fine.
type Config struct {
	// Address is the listen address (default ":3000").
	Address string

	// PageTitle is used in the SSR page shell.
	PageTitle string

	// ReadTimeout and WriteTimeout apply to the HTTP server.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// SessionTTL is how long a detached session survives before the
	// sweeper evicts it (default 5m). Resuming within the TTL restores
	// the live instance; after it, the snapshot store is the only hope.
	SessionTTL time.Duration

	// SweepInterval is how often detached sessions are checked against
	// the TTL (default 1m).
	SweepInterval time.Duration

	// AllowedOrigins restricts WebSocket upgrades. Empty means
	// same-origin only.
	AllowedOrigins []string

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, when set, receives runtime instruments. Nil disables
	// metric collection (the /metrics endpoint still serves whatever the
	// default registry holds).
	Metrics *middleware.Metrics

	// Middlewares wrap event dispatch, outermost first.
	Middlewares []middleware.Middleware

	// Store persists session snapshots for resume. Nil disables
	// persistence.
	Store store.Store
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:         ":3000",
		PageTitle:       "loom",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		SessionTTL:      5 * time.Minute,
		SweepInterval:   time.Minute,
	}
}

// withDefaults fills unset fields in place and returns the config.
func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c.Address == "" {
		c.Address = def.Address
	}
	if c.PageTitle == "" {
		c.PageTitle = def.PageTitle
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = def.SessionTTL
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
