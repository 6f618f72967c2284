package loom

import (
	"fmt"
	"sync/atomic"

	"github.com/loomui/loom/pkg/vdom"
)

// DebugMode enables dev-time validation throughout the loom package.
// When true, hook correlation violations panic instead of logging.
// This should be set at startup and not changed during runtime.
var DebugMode bool

// RenderFunc produces the desired output description for one instance.
// The instance handle is threaded explicitly so the kernel stays reentrant
// and testable: hooks are registered against `in`, never ambient state.
//
// Render functions must be pure and synchronous. Side effects belong in
// UseEffect bodies, which run after the output has been committed.
type RenderFunc func(in *Instance) *vdom.VNode

// hookKind identifies the type of hook call for order validation.
type hookKind uint8

const (
	hookState hookKind = iota + 1
	hookEffect
)

// String returns a human-readable name for the hook kind.
func (k hookKind) String() string {
	switch k {
	case hookState:
		return "UseState"
	case hookEffect:
		return "UseEffect"
	default:
		return "Unknown"
	}
}

// Instance is one mounted occurrence of a component. It owns an ordered
// sequence of state cells and effect records whose position indices stay
// stable across re-renders; that stability is what correlates a hook call
// on render N with the cell it allocated on render 1.
//
// Instances are created by Scheduler.Mount and destroyed by Unmount. After
// unmount, setters become no-ops and the cell/effect tables are released.
type Instance struct {
	id uint64

	// render is the component's render function.
	render RenderFunc

	// sched is the owning scheduler.
	sched *Scheduler

	// cells are the state cells in registration order.
	cells []*stateCell

	// effects are the effect records in registration order.
	effects []*effectRecord

	// stagedEffects holds hook registrations from the in-progress render.
	// They are applied to the effect table only if the render completes;
	// an aborted render never persists a partial position table.
	stagedEffects []stagedEffect

	// hookOrder is the hook sequence recorded on the first committed
	// render, used to detect correlation desync on later renders.
	hookOrder []hookKind

	// seeds optionally supply persisted cell values for the first render.
	seeds []Seed

	// Per-render-pass cursors.
	cellIdx   int
	effectIdx int
	hookIdx   int

	// baseCells is the cell table length at the start of the current
	// render pass, for rollback on abort.
	baseCells int

	// renderCount is 0 before the first committed render, 1+ after.
	renderCount int

	// lastTree is the last committed output description.
	lastTree *vdom.VNode

	// dirty indicates the instance has uncommitted state changes.
	dirty atomic.Bool

	// unmounted indicates the instance has been destroyed.
	unmounted atomic.Bool

	// rendering is true while the render function is executing.
	rendering bool
}

// ID returns the unique identifier for this instance.
func (in *Instance) ID() uint64 {
	return in.id
}

// IsDirty returns whether the instance has state changes not yet reflected
// in a committed render.
func (in *Instance) IsDirty() bool {
	return in.dirty.Load()
}

// IsUnmounted returns true once the instance has been destroyed.
func (in *Instance) IsUnmounted() bool {
	return in.unmounted.Load()
}

// LastTree returns the last committed output description, or nil before
// the first commit.
func (in *Instance) LastTree() *vdom.VNode {
	return in.lastTree
}

// Post forwards to the owning scheduler's Post. Handy inside effect bodies
// that spawn goroutines: the goroutine posts its result back onto the turn
// instead of writing cells concurrently with a render.
func (in *Instance) Post(fn func()) {
	in.sched.Post(fn)
}

// Unmount destroys the instance: pending effect runs that have not started
// are cancelled, every live cleanup handle is invoked exactly once in
// reverse registration order, and all cells and records are released.
func (in *Instance) Unmount() {
	in.sched.unmount(in)
}

// beginRender resets the per-pass cursors and snapshots rollback state.
func (in *Instance) beginRender() {
	in.rendering = true
	in.cellIdx = 0
	in.effectIdx = 0
	in.hookIdx = 0
	in.baseCells = len(in.cells)
	in.stagedEffects = in.stagedEffects[:0]
}

// endRender validates hook correlation and applies staged effect
// registrations. Called only when the render function returned normally.
func (in *Instance) endRender() {
	in.rendering = false

	if in.renderCount == 0 {
		in.renderCount = 1
	} else if in.hookIdx != len(in.hookOrder) {
		in.reportDesync(fmt.Sprintf("expected %d hooks, got %d", len(in.hookOrder), in.hookIdx))
	}

	for _, st := range in.stagedEffects {
		in.applyStagedEffect(st)
	}
	in.stagedEffects = in.stagedEffects[:0]
}

// abortRender rolls back the in-progress render pass after a panic.
// Cells allocated during the aborted pass are discarded and staged effect
// registrations are dropped, so the instance keeps exactly the table of
// its last successfully committed render.
func (in *Instance) abortRender() {
	in.rendering = false
	in.cells = in.cells[:in.baseCells]
	in.stagedEffects = in.stagedEffects[:0]

	if in.renderCount == 0 {
		// The first render never committed; no hook order is locked in.
		in.hookOrder = nil
	}
}

// trackHook records or validates one hook call during a render pass.
// On the first render the order is recorded; on later renders any
// deviation is a correlation desync and behavior past it is undefined.
func (in *Instance) trackHook(k hookKind) {
	if !in.rendering {
		in.reportDesync(fmt.Sprintf("%s called outside render", k))
		return
	}

	if in.renderCount == 0 {
		in.hookOrder = append(in.hookOrder, k)
		in.hookIdx++
		return
	}

	if in.hookIdx >= len(in.hookOrder) {
		in.reportDesync(fmt.Sprintf("extra %s hook at index %d", k, in.hookIdx))
	} else if in.hookOrder[in.hookIdx] != k {
		in.reportDesync(fmt.Sprintf("index %d: expected %s, got %s", in.hookIdx, in.hookOrder[in.hookIdx], k))
	}
	in.hookIdx++
}

// reportDesync raises a hook correlation diagnostic. Panics in DebugMode,
// logs otherwise.
func (in *Instance) reportDesync(detail string) {
	msg := fmt.Sprintf("%s hook order changed: %s", CodeHookOrderChanged, detail)
	if DebugMode {
		panic(msg)
	}
	in.sched.logger.Error(msg, "instance", in.id)
}
