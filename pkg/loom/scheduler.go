package loom

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/loomui/loom/pkg/vdom"
)

// maxFlushPasses bounds one Flush call. Effects are allowed to dirty
// instances, which triggers another render pass within the same flush, but
// a feedback loop between effects and setters must not wedge the turn.
const maxFlushPasses = 64

// Committer applies a committed output description. It is implemented by
// the hosting layer (typically by diffing prev against next and shipping
// patches); the kernel only guarantees it is called between the render
// phase and the effect phase.
type Committer interface {
	Commit(in *Instance, prev, next *vdom.VNode)
}

// CommitterFunc adapts a function to the Committer interface.
type CommitterFunc func(in *Instance, prev, next *vdom.VNode)

// Commit calls f.
func (f CommitterFunc) Commit(in *Instance, prev, next *vdom.VNode) {
	f(in, prev, next)
}

// Scheduler owns the dirty set and drives the render/commit/effect cycle
// for the instances mounted on it. All renders and effect invocations run
// on the caller's goroutine; the scheduler never spawns its own. Work from
// other goroutines enters through Post, never through direct setter calls.
type Scheduler struct {
	mu sync.Mutex

	// instances holds every live instance mounted on this scheduler.
	instances map[uint64]*Instance

	// dirtyQueue holds instances pending re-render, in dirty order.
	// Deduplicated via each instance's dirty flag.
	dirtyQueue []*Instance

	// effectQueue holds instances with scheduled effect runs, in commit
	// order.
	effectQueue []*Instance

	// batchDepth tracks nested Batch calls. While > 0, setter
	// notifications queue instead of marking dirty immediately.
	batchDepth   int
	batchPending []*Instance

	// posted holds functions queued via Post, guarded by their own mutex
	// because Post is the one entry point callable from any goroutine.
	postMu sync.Mutex
	posted []func()

	// wake is invoked after Post queues work, so a host driving Flush
	// from its own loop knows to schedule a turn.
	wake func()

	committer Committer
	logger    *slog.Logger

	// Cumulative counters, readable via Stats.
	renders       atomic.Uint64
	effectRuns    atomic.Uint64
	cleanupPanics atomic.Uint64
}

// Stats is a snapshot of the scheduler's cumulative counters.
type Stats struct {
	// Renders is the number of committed render passes.
	Renders uint64

	// EffectRuns is the number of effect bodies executed.
	EffectRuns uint64

	// CleanupPanics is the number of cleanup handles that panicked.
	CleanupPanics uint64
}

// Stats returns the scheduler's cumulative counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Renders:       s.renders.Load(),
		EffectRuns:    s.effectRuns.Load(),
		CleanupPanics: s.cleanupPanics.Load(),
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for diagnostics. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithCommitter sets the commit callback invoked between the render and
// effect phases.
func WithCommitter(c Committer) Option {
	return func(s *Scheduler) {
		s.committer = c
	}
}

// WithWake sets a callback invoked whenever Post queues work. The callback
// must not block and must not call Flush itself; it only signals the host's
// turn loop.
func WithWake(fn func()) Option {
	return func(s *Scheduler) {
		s.wake = fn
	}
}

// NewScheduler creates a scheduler with no mounted instances.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		instances: make(map[uint64]*Instance),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Mount creates an instance for render, performs its first render pass and
// commit, and schedules its mount effects. The effects themselves run on
// the next Flush, so a caller that unmounts immediately afterwards never
// observes them.
func (s *Scheduler) Mount(render RenderFunc, opts ...MountOption) (*Instance, error) {
	in := &Instance{
		id:     nextID(),
		render: render,
		sched:  s,
	}
	for _, opt := range opts {
		opt(in)
	}

	tree, err := s.renderPass(in)
	if err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}

	s.mu.Lock()
	s.instances[in.id] = in
	s.mu.Unlock()

	s.commit(in, nil, tree)
	s.queueEffects(in)

	return in, nil
}

// Batch groups multiple setter calls into a single notification phase.
// Instances dirtied inside the batch are deduplicated and enqueued once
// when the outermost batch completes. Batches can be nested.
func (s *Scheduler) Batch(fn func()) {
	s.mu.Lock()
	s.batchDepth++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.batchDepth--
		done := s.batchDepth == 0
		var pending []*Instance
		if done {
			pending = s.batchPending
			s.batchPending = nil
		}
		s.mu.Unlock()

		for _, in := range pending {
			s.markDirty(in)
		}
	}()

	fn()
}

// Post queues fn to run at the start of the next Flush, on the flushing
// goroutine. It is safe to call from any goroutine and is the correct way
// to update cells from asynchronous work (timers, IO callbacks): setter
// calls inside fn happen on the turn, never concurrently with a render.
func (s *Scheduler) Post(fn func()) {
	if fn == nil {
		return
	}

	s.postMu.Lock()
	s.posted = append(s.posted, fn)
	wake := s.wake
	s.postMu.Unlock()

	if wake != nil {
		wake()
	}
}

// Flush runs the two-phase commit cycle until the scheduler quiesces:
// posted functions run first, then every dirty instance is re-rendered
// exactly once per pass and sees the latest value of each of its cells,
// committed output is applied, then the effect phase runs. Effects that
// dirty instances extend the flush with another pass, up to maxFlushPasses.
func (s *Scheduler) Flush() {
	for pass := 0; pass < maxFlushPasses; pass++ {
		for _, fn := range s.takePosted() {
			s.safePost(fn)
		}

		dirty := s.takeDirty()
		effects := s.takeEffectQueue()

		if len(dirty) == 0 && len(effects) == 0 {
			return
		}

		for _, in := range dirty {
			in.dirty.Store(false)
			if in.unmounted.Load() {
				continue
			}

			prev := in.lastTree
			tree, err := s.renderPass(in)
			if err != nil {
				// Aborted render: the instance keeps its last committed
				// state and output.
				continue
			}

			s.commit(in, prev, tree)
			effects = append(effects, in)
		}

		// Effect phase: stale cleanups, then new runs, in commit order.
		seen := make(map[uint64]bool, len(effects))
		for _, in := range effects {
			if seen[in.id] {
				continue
			}
			seen[in.id] = true
			in.runPendingEffects()
		}
	}

	s.logger.Error(CodeFlushBudget+" flush exceeded pass budget, effects keep dirtying instances",
		"passes", maxFlushPasses)
}

// HasPending returns true if a Flush would do work.
func (s *Scheduler) HasPending() bool {
	s.postMu.Lock()
	posted := len(s.posted) > 0
	s.postMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return posted || len(s.dirtyQueue) > 0 || len(s.effectQueue) > 0
}

// notify is called by setters after a cell value actually changed.
func (s *Scheduler) notify(in *Instance) {
	s.mu.Lock()
	if s.batchDepth > 0 {
		s.batchPending = append(s.batchPending, in)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.markDirty(in)
}

// markDirty enqueues the instance for re-render. The CAS on the dirty flag
// guarantees an instance dirtied many times before the next flush appears
// in the queue once.
func (s *Scheduler) markDirty(in *Instance) {
	if in.unmounted.Load() {
		return
	}
	if in.dirty.CompareAndSwap(false, true) {
		s.mu.Lock()
		s.dirtyQueue = append(s.dirtyQueue, in)
		s.mu.Unlock()
	}
}

// queueEffects schedules the instance's pending effect records for the
// next flush's effect phase.
func (s *Scheduler) queueEffects(in *Instance) {
	s.mu.Lock()
	s.effectQueue = append(s.effectQueue, in)
	s.mu.Unlock()
}

func (s *Scheduler) takePosted() []func() {
	s.postMu.Lock()
	defer s.postMu.Unlock()
	posted := s.posted
	s.posted = nil
	return posted
}

// safePost runs one posted function with panic containment.
func (s *Scheduler) safePost(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(CodePostPanic+" posted function panicked",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	fn()
}

func (s *Scheduler) takeDirty() []*Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	dirty := s.dirtyQueue
	s.dirtyQueue = nil
	return dirty
}

func (s *Scheduler) takeEffectQueue() []*Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.effectQueue
	s.effectQueue = nil
	return q
}

// renderPass runs one render of the instance with panic containment.
// On panic the pass is rolled back: no cell allocated and no effect staged
// during the pass survives.
func (s *Scheduler) renderPass(in *Instance) (tree *vdom.VNode, err error) {
	in.beginRender()

	defer func() {
		if r := recover(); r != nil {
			in.abortRender()
			s.logger.Error(CodeRenderPanic+" render panicked",
				"instance", in.id,
				"panic", r,
				"stack", string(debug.Stack()))
			tree = nil
			err = fmt.Errorf("%w: %v", ErrRenderPanic, r)
		}
	}()

	tree = in.render(in)
	in.endRender()
	return tree, nil
}

// commit applies the committed tree through the host's Committer and
// records it as the instance's last committed output.
func (s *Scheduler) commit(in *Instance, prev, next *vdom.VNode) {
	if s.committer != nil {
		s.committer.Commit(in, prev, next)
	}
	in.lastTree = next
	s.renders.Add(1)
}

// unmount destroys the instance. Cleanups run exactly once each, in
// reverse registration order; a panic in one is logged and does not stop
// the rest.
func (s *Scheduler) unmount(in *Instance) {
	if in.unmounted.Swap(true) {
		return
	}

	for i := len(in.effects) - 1; i >= 0; i-- {
		rec := in.effects[i]
		rec.pending = false
		if rec.cleanup != nil {
			s.safeCleanup(in, rec)
		}
	}

	in.cells = nil
	in.effects = nil
	in.lastTree = nil

	s.mu.Lock()
	delete(s.instances, in.id)
	s.mu.Unlock()
}

// safeRunEffect runs an effect body with panic containment and returns
// its cleanup handle, or nil if the body panicked before returning one.
func (s *Scheduler) safeRunEffect(in *Instance, rec *effectRecord) (cleanup Cleanup) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(CodeEffectPanic+" effect panicked",
				"instance", in.id,
				"effect", rec.index,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	s.effectRuns.Add(1)
	return rec.fn()
}

// safeCleanup invokes and clears the record's cleanup handle with panic
// containment. The handle is cleared before invocation so it can never
// run twice, even if it panics.
func (s *Scheduler) safeCleanup(in *Instance, rec *effectRecord) {
	cleanup := rec.cleanup
	rec.cleanup = nil

	defer func() {
		if r := recover(); r != nil {
			s.cleanupPanics.Add(1)
			s.logger.Error(CodeCleanupPanic+" cleanup panicked",
				"instance", in.id,
				"effect", rec.index,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	cleanup()
}
