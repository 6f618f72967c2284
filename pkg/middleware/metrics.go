package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/loomui/loom/pkg/protocol"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "loom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for event duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "loom",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the runtime's Prometheus instruments. One instance is
// shared between the dispatch middleware and the server, which feeds the
// render/effect/session instruments directly.
type Metrics struct {
	EventsTotal      *prometheus.CounterVec
	EventDuration    *prometheus.HistogramVec
	EventErrors      *prometheus.CounterVec
	RendersTotal     prometheus.Counter
	EffectsTotal     prometheus.Counter
	CleanupErrors    prometheus.Counter
	PatchesSent      prometheus.Counter
	ActiveSessions   prometheus.Gauge
	SnapshotFailures prometheus.Counter
}

// NewMetrics registers and returns the runtime instruments.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &Metrics{
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "events_total",
			Help:        "Client events dispatched, by event type.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"event"}),
		EventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "event_duration_seconds",
			Help:        "Time spent handling one client event, including the flush.",
			Buckets:     cfg.Buckets,
			ConstLabels: cfg.ConstLabels,
		}, []string{"event"}),
		EventErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "event_errors_total",
			Help:        "Client events that failed, by event type.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"event"}),
		RendersTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "renders_total",
			Help:        "Committed render passes.",
			ConstLabels: cfg.ConstLabels,
		}),
		EffectsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "effects_total",
			Help:        "Effect bodies executed.",
			ConstLabels: cfg.ConstLabels,
		}),
		CleanupErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "cleanup_errors_total",
			Help:        "Cleanup handles that panicked.",
			ConstLabels: cfg.ConstLabels,
		}),
		PatchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "patches_sent_total",
			Help:        "Patches shipped to clients.",
			ConstLabels: cfg.ConstLabels,
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "active_sessions",
			Help:        "Currently connected sessions.",
			ConstLabels: cfg.ConstLabels,
		}),
		SnapshotFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "snapshot_failures_total",
			Help:        "Session snapshot saves or loads that failed.",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// Prometheus returns a dispatch middleware that records event counts,
// durations and errors on m.
func Prometheus(m *Metrics) Middleware {
	return func(next Dispatcher) Dispatcher {
		return func(ctx context.Context, sessionID string, event *protocol.Event) error {
			start := time.Now()
			err := next(ctx, sessionID, event)

			m.EventsTotal.WithLabelValues(event.Type).Inc()
			m.EventDuration.WithLabelValues(event.Type).Observe(time.Since(start).Seconds())
			if err != nil {
				m.EventErrors.WithLabelValues(event.Type).Inc()
			}
			return err
		}
	}
}
