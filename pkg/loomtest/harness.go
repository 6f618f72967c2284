package loomtest

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/loomui/loom/pkg/loom"
	"github.com/loomui/loom/pkg/vdom"
)

// Harness hosts one mounted component for tests. It is not safe for
// concurrent use; drive it from the test goroutine.
type Harness struct {
	t *testing.T

	sched    *loom.Scheduler
	root     *loom.Instance
	hids     *vdom.HIDGenerator
	handlers map[string]vdom.EventHandler
	patches  []vdom.Patch
}

// Mount mounts the component and runs its first turn, including mount
// effects. The instance is unmounted automatically when the test ends.
func Mount(t *testing.T, render loom.RenderFunc, opts ...loom.MountOption) *Harness {
	t.Helper()

	h := &Harness{
		t:        t,
		hids:     vdom.NewHIDGenerator(),
		handlers: make(map[string]vdom.EventHandler),
	}
	h.sched = loom.NewScheduler(
		loom.WithCommitter(loom.CommitterFunc(h.commit)),
		loom.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	root, err := h.sched.Mount(render, opts...)
	if err != nil {
		t.Fatalf("loomtest: mount: %v", err)
	}
	h.root = root

	h.sched.Flush()
	h.patches = nil

	t.Cleanup(func() {
		if !root.IsUnmounted() {
			root.Unmount()
		}
	})
	return h
}

func (h *Harness) commit(_ *loom.Instance, prev, next *vdom.VNode) {
	if prev != nil {
		h.patches = append(h.patches, vdom.Diff(prev, next)...)
	}
	vdom.AssignHIDs(next, h.hids)
	h.handlers = vdom.CollectHandlers(next)
}

// Instance returns the mounted root instance.
func (h *Harness) Instance() *loom.Instance {
	return h.root
}

// Scheduler returns the harness's scheduler, for tests that need to batch
// or flush manually.
func (h *Harness) Scheduler() *loom.Scheduler {
	return h.sched
}

// Fire dispatches one event to the handler bound at the last commit and
// runs the resulting turn. It fails the test when no handler is bound.
func (h *Harness) Fire(hid, event string, payload map[string]any) {
	h.t.Helper()

	handler, ok := h.handlers[hid+"_on"+event]
	if !ok {
		h.t.Fatalf("loomtest: no on%s handler bound on %s (have %v)", event, hid, h.handlerKeys())
	}

	handler(payload)
	h.sched.Flush()
}

// Click fires a click event with an empty payload.
func (h *Harness) Click(hid string) {
	h.t.Helper()
	h.Fire(hid, "click", nil)
}

// Input fires an input event carrying the given value.
func (h *Harness) Input(hid, value string) {
	h.t.Helper()
	h.Fire(hid, "input", map[string]any{"value": value})
}

// Flush runs any pending turn, for state changed outside an event (a
// setter called from a goroutine or an effect).
func (h *Harness) Flush() {
	h.sched.Flush()
}

// HTML renders the last committed tree.
func (h *Harness) HTML() string {
	h.t.Helper()
	html, err := vdom.RenderToString(h.root.LastTree())
	if err != nil {
		h.t.Fatalf("loomtest: render: %v", err)
	}
	return html
}

// Patches returns the patches accumulated since the last call and resets
// the record.
func (h *Harness) Patches() []vdom.Patch {
	p := h.patches
	h.patches = nil
	return p
}

// ExpectContains asserts the committed HTML contains the substring.
func (h *Harness) ExpectContains(want string) {
	h.t.Helper()
	if html := h.HTML(); !strings.Contains(html, want) {
		h.t.Errorf("output missing %q, got:\n%s", want, truncate(html, 500))
	}
}

// ExpectNotContains asserts the committed HTML does not contain the
// substring.
func (h *Harness) ExpectNotContains(unwanted string) {
	h.t.Helper()
	if html := h.HTML(); strings.Contains(html, unwanted) {
		h.t.Errorf("output contains %q, got:\n%s", unwanted, truncate(html, 500))
	}
}

func (h *Harness) handlerKeys() []string {
	keys := make([]string, 0, len(h.handlers))
	for k := range h.handlers {
		keys = append(keys, k)
	}
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
