// Package middleware provides observability wrappers around session event
// dispatch: Prometheus metrics and OpenTelemetry traces. Middlewares
// compose around a Dispatcher the way HTTP middleware composes around a
// handler.
package middleware

import (
	"context"

	"github.com/loomui/loom/pkg/protocol"
)

// Dispatcher handles one client event for a session.
type Dispatcher func(ctx context.Context, sessionID string, event *protocol.Event) error

// Middleware wraps a Dispatcher.
type Middleware func(Dispatcher) Dispatcher

// Chain composes middlewares so the first one listed is outermost.
func Chain(d Dispatcher, mws ...Middleware) Dispatcher {
	for i := len(mws) - 1; i >= 0; i-- {
		d = mws[i](d)
	}
	return d
}
