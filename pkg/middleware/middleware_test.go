package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/loomui/loom/pkg/protocol"
)

func testEvent() *protocol.Event {
	return &protocol.Event{HID: "h1", Type: "click"}
}

func TestChainOrdersOutermostFirst(t *testing.T) {
	var order []string

	tag := func(name string) Middleware {
		return func(next Dispatcher) Dispatcher {
			return func(ctx context.Context, sessionID string, event *protocol.Event) error {
				order = append(order, name+":before")
				err := next(ctx, sessionID, event)
				order = append(order, name+":after")
				return err
			}
		}
	}

	base := func(context.Context, string, *protocol.Event) error {
		order = append(order, "base")
		return nil
	}

	d := Chain(base, tag("outer"), tag("inner"))
	if err := d(context.Background(), "s1", testEvent()); err != nil {
		t.Fatal(err)
	}

	want := []string{"outer:before", "inner:before", "base", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestChainEmptyReturnsBase(t *testing.T) {
	called := false
	base := func(context.Context, string, *protocol.Event) error {
		called = true
		return nil
	}

	if err := Chain(base)(context.Background(), "s1", testEvent()); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("base dispatcher not called")
	}
}

func TestPrometheusCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	ok := func(context.Context, string, *protocol.Event) error { return nil }
	d := Chain(ok, Prometheus(m))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := d(ctx, "s1", testEvent()); err != nil {
			t.Fatal(err)
		}
	}

	if got := testutil.ToFloat64(m.EventsTotal.WithLabelValues("click")); got != 3 {
		t.Errorf("events_total{event=click} = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.EventErrors.WithLabelValues("click")); got != 0 {
		t.Errorf("event_errors_total{event=click} = %v, want 0", got)
	}
}

func TestPrometheusCountsErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	fail := func(context.Context, string, *protocol.Event) error {
		return errors.New("handler failed")
	}
	d := Chain(fail, Prometheus(m))

	if err := d(context.Background(), "s1", testEvent()); err == nil {
		t.Fatal("error swallowed by middleware")
	}

	if got := testutil.ToFloat64(m.EventErrors.WithLabelValues("click")); got != 1 {
		t.Errorf("event_errors_total{event=click} = %v, want 1", got)
	}
}

func TestOTelPassesThroughError(t *testing.T) {
	sentinel := errors.New("dispatch failed")
	fail := func(context.Context, string, *protocol.Event) error { return sentinel }

	d := Chain(fail, OTel())
	if err := d(context.Background(), "s1", testEvent()); !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want %v", err, sentinel)
	}
}

func TestOTelFilterSkipsSpan(t *testing.T) {
	var got *protocol.Event
	base := func(_ context.Context, _ string, e *protocol.Event) error {
		got = e
		return nil
	}

	d := Chain(base, OTel(WithEventFilter(func(*protocol.Event) bool { return false })))
	if err := d(context.Background(), "s1", testEvent()); err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Error("filtered event never reached the dispatcher")
	}
}
