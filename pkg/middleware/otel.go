package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomui/loom/pkg/protocol"
)

// defaultTracerName is the tracer used when none is configured.
const defaultTracerName = "loom"

// OTelConfig configures the OpenTelemetry dispatch middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "loom").
	TracerName string

	// Filter determines which events to trace. Return true to trace the
	// event, false to skip. If nil, all events are traced.
	Filter func(event *protocol.Event) bool

	// AttributeExtractor extracts custom attributes for each traced event.
	AttributeExtractor func(event *protocol.Event) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(event *protocol.Event) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(event *protocol.Event) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OTel returns a dispatch middleware that wraps each event in a span
// named "loom.dispatch", carrying the session ID, target HID and event
// type. Dispatch failures set the span status to error.
func OTel(opts ...OTelOption) Middleware {
	cfg := &OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.tracer = otel.Tracer(cfg.TracerName)

	return func(next Dispatcher) Dispatcher {
		return func(ctx context.Context, sessionID string, event *protocol.Event) error {
			if cfg.Filter != nil && !cfg.Filter(event) {
				return next(ctx, sessionID, event)
			}

			attrs := []attribute.KeyValue{
				attribute.String("loom.session_id", sessionID),
				attribute.String("loom.event.hid", event.HID),
				attribute.String("loom.event.type", event.Type),
			}
			if cfg.AttributeExtractor != nil {
				attrs = append(attrs, cfg.AttributeExtractor(event)...)
			}

			ctx, span := cfg.tracer.Start(ctx, "loom.dispatch",
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...))
			defer span.End()

			err := next(ctx, sessionID, event)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return err
		}
	}
}
