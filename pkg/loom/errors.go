package loom

import "errors"

// Diagnostic codes used in log messages and panics. Each code has exactly
// one meaning so it can be grepped across a deployment's logs.
const (
	// CodeSetAfterUnmount: a Setter was invoked after its owning instance
	// was unmounted. The write is dropped.
	CodeSetAfterUnmount = "[LOOM E001]"

	// CodeHookOrderChanged: an instance registered hooks in a different
	// order or count than its first committed render. Correlation between
	// position indices and cells/effects is undefined from this point on.
	CodeHookOrderChanged = "[LOOM E002]"

	// CodeRenderPanic: a render function panicked. The render pass was
	// aborted and the instance keeps its last committed state.
	CodeRenderPanic = "[LOOM E003]"

	// CodeEffectPanic: an effect body panicked. The panic was contained at
	// the scheduler boundary.
	CodeEffectPanic = "[LOOM E004]"

	// CodeCleanupPanic: a cleanup handle panicked. Remaining cleanups still
	// run.
	CodeCleanupPanic = "[LOOM E005]"

	// CodeFlushBudget: a single flush exceeded the pass budget, which means
	// effects kept dirtying instances in a loop.
	CodeFlushBudget = "[LOOM E006]"

	// CodePostPanic: a function queued via Post panicked. The panic was
	// contained; the rest of the flush proceeds.
	CodePostPanic = "[LOOM E007]"
)

// ErrUnmounted is returned by operations that require a live instance.
var ErrUnmounted = errors.New("loom: instance is unmounted")

// ErrRenderPanic wraps a panic recovered from a render function.
var ErrRenderPanic = errors.New("loom: render panicked")

// ErrHookMismatch is reported when hook registration desyncs from the
// order recorded on the first committed render.
var ErrHookMismatch = errors.New("loom: hook order changed between renders")
