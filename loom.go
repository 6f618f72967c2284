// Package loom provides the public API for the loom reactive runtime.
//
// This is the recommended import for most applications:
//
//	import "github.com/loomui/loom"
//
// Usage:
//
//	func Counter(in *loom.Instance) *loom.VNode {
//	    count, setCount := loom.UseState(in, 0)
//	    loom.UseEffect(in, func() loom.Cleanup {
//	        log.Printf("count is %d", count)
//	        return nil
//	    }, []any{count})
//	    return loom.Div(
//	        loom.Button(loom.OnClick(func(map[string]any) {
//	            setCount.Update(func(n int) int { return n + 1 })
//	        }), loom.Textf("clicked %d times", count)),
//	    )
//	}
package loom

import (
	core "github.com/loomui/loom/pkg/loom"
	"github.com/loomui/loom/pkg/vdom"
)

// =============================================================================
// Kernel (re-export from pkg/loom)
// =============================================================================

// Instance is one mounted component: its state cells, its effects and
// its last committed tree.
type Instance = core.Instance

// Scheduler drives render and effect turns for its instances.
type Scheduler = core.Scheduler

// Stats are the scheduler's cumulative counters.
type Stats = core.Stats

// RenderFunc produces a tree from an instance's current state. It must
// be pure: hooks only, no I/O.
type RenderFunc = core.RenderFunc

// EffectFunc is an effect body; its return value is the cleanup handle.
type EffectFunc = core.EffectFunc

// Cleanup undoes one effect run. Nil means nothing to undo.
type Cleanup = core.Cleanup

// Setter writes a state cell from outside the render.
type Setter[T any] = core.Setter[T]

// Committer receives committed trees, typically to diff and ship them.
type Committer = core.Committer

// CommitterFunc adapts a function to Committer.
type CommitterFunc = core.CommitterFunc

// Seed supplies a persisted initial value for one state cell.
type Seed = core.Seed

// Option configures a Scheduler.
type Option = core.Option

// MountOption configures one Mount call.
type MountOption = core.MountOption

// NewScheduler creates a scheduler.
var NewScheduler = core.NewScheduler

// WithLogger sets the scheduler's logger.
var WithLogger = core.WithLogger

// WithCommitter sets the commit sink.
var WithCommitter = core.WithCommitter

// WithWake sets the host wake callback invoked when Post queues work.
var WithWake = core.WithWake

// WithSeeds provides persisted cell values to a Mount call.
var WithSeeds = core.WithSeeds

// UseState declares a state cell and returns its current value with a
// setter. Must be called unconditionally, in the same order each render.
func UseState[T any](in *Instance, initial T) (T, *Setter[T]) {
	return core.UseState(in, initial)
}

// UseStateLazy is UseState with the initial value computed on first use.
func UseStateLazy[T any](in *Instance, initial func() T) (T, *Setter[T]) {
	return core.UseStateLazy(in, initial)
}

// UseEffect registers a side effect for the commit phase. Nil deps rerun
// it every commit; an empty non-nil deps list runs it once.
var UseEffect = core.UseEffect

// DebugMode enables strict hook diagnostics: hook order violations panic
// instead of logging.
func SetDebugMode(on bool) { core.DebugMode = on }

// =============================================================================
// Tree building (re-export from pkg/vdom)
// =============================================================================

type VNode = vdom.VNode
type Props = vdom.Props
type EventHandler = vdom.EventHandler

// Element constructors.
var (
	Div      = vdom.Div
	Span     = vdom.Span
	P        = vdom.P
	H1       = vdom.H1
	H2       = vdom.H2
	H3       = vdom.H3
	Ul       = vdom.Ul
	Ol       = vdom.Ol
	Li       = vdom.Li
	A        = vdom.A
	Main     = vdom.Main
	Section  = vdom.Section
	Header   = vdom.Header
	Footer   = vdom.Footer
	Nav      = vdom.Nav
	Pre      = vdom.Pre
	Code     = vdom.Code
	Button   = vdom.Button
	Input    = vdom.Input
	Form     = vdom.Form
	Label    = vdom.Label
	Select   = vdom.Select
	OptionEl = vdom.Option
	Textarea = vdom.Textarea
	El       = vdom.El
)

// Text and structure helpers.
var (
	Text     = vdom.Text
	Textf    = vdom.Textf
	Raw      = vdom.Raw
	Fragment = vdom.Fragment
	If       = vdom.If
	IfElse   = vdom.IfElse
	Nothing  = vdom.Nothing
)

// Range maps a slice to child nodes.
func Range[T any](items []T, fn func(item T, index int) *vdom.VNode) []*vdom.VNode {
	return vdom.Range(items, fn)
}

// Attributes and events.
var (
	Class       = vdom.Class
	Classf      = vdom.Classf
	ID          = vdom.ID
	Href        = vdom.Href
	Src         = vdom.Src
	Type        = vdom.Type
	Name        = vdom.Name
	Value       = vdom.Value
	Placeholder = vdom.Placeholder
	Disabled    = vdom.Disabled
	Key         = vdom.Key
	SetAttr     = vdom.SetAttr
	On          = vdom.On
	OnClick     = vdom.OnClick
	OnInput     = vdom.OnInput
	OnChange    = vdom.OnChange
	OnSubmit    = vdom.OnSubmit
)
