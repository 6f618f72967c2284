package loom

// EffectFunc is a side-effecting action tied to commit timing. It may
// return a Cleanup that is invoked before the effect re-runs and at
// unmount, or nil when there is nothing to undo.
type EffectFunc func() Cleanup

// Cleanup undoes whatever its effect set up. It is called at most once
// per effect run.
type Cleanup func()

// effectRecord correlates one UseEffect call site with its last-run
// dependency list and outstanding cleanup handle. Position indices are
// stable across renders, like state cells.
type effectRecord struct {
	index int

	// fn is the effect body from the most recent committed render.
	fn EffectFunc

	// deps is the dependency list from the last scheduled run.
	// nil means "run after every commit"; empty means "first commit only".
	deps []any

	// hasDeps distinguishes an omitted list from an empty one.
	hasDeps bool

	// cleanup is the handle returned by the last completed run, if any.
	cleanup Cleanup

	// pending is true when the effect is scheduled to run after the next
	// commit's effect phase.
	pending bool
}

// stagedEffect is one UseEffect registration from an in-progress render.
// Staging is applied to the record table only if the render commits.
type stagedEffect struct {
	index   int
	fn      EffectFunc
	deps    []any
	hasDeps bool
}

// UseEffect registers the effect at the next position index for the
// current render pass.
//
// On the instance's first render the effect is scheduled to run after the
// output has been committed. On later renders the dependency list is
// compared element-wise against the previous run: if it differs, the
// previous cleanup runs before the new body; if it is unchanged, nothing
// happens. A nil deps list means "run after every commit"; an empty,
// non-nil list means "run after the first commit, clean up at unmount".
//
// Must be called unconditionally during render, in the same order, on
// every render of the instance.
func UseEffect(in *Instance, fn EffectFunc, deps []any) {
	in.trackHook(hookEffect)

	idx := in.effectIdx
	in.effectIdx++

	in.stagedEffects = append(in.stagedEffects, stagedEffect{
		index:   idx,
		fn:      fn,
		deps:    deps,
		hasDeps: deps != nil,
	})
}

// applyStagedEffect folds one staged registration into the record table.
// Called from endRender, only for committed renders.
func (in *Instance) applyStagedEffect(st stagedEffect) {
	if st.index < len(in.effects) {
		rec := in.effects[st.index]
		rerun := !st.hasDeps || !rec.hasDeps || !depsEqual(rec.deps, st.deps)
		rec.fn = st.fn
		rec.deps = st.deps
		rec.hasDeps = st.hasDeps
		if rerun {
			rec.pending = true
		}
		return
	}

	if st.index != len(in.effects) {
		in.reportDesync("effect table gap, registration skipped between renders")
		return
	}

	in.effects = append(in.effects, &effectRecord{
		index:   st.index,
		fn:      st.fn,
		deps:    st.deps,
		hasDeps: st.hasDeps,
		pending: true,
	})
}

// runPendingEffects executes the instance's scheduled effects in
// registration order. Stale cleanups run synchronously before their
// effect's new body. Panics in either are contained here so sibling
// effects and instances still run.
func (in *Instance) runPendingEffects() {
	for _, rec := range in.effects {
		if !rec.pending {
			continue
		}
		rec.pending = false

		// Unmounting cancels runs that have not started.
		if in.unmounted.Load() {
			continue
		}

		if rec.cleanup != nil {
			in.sched.safeCleanup(in, rec)
		}

		rec.cleanup = in.sched.safeRunEffect(in, rec)

		// The instance may have been unmounted by its own effect body. The
		// unmount pass has already run, so a handle produced now would leak;
		// invoke it immediately, best-effort.
		if in.unmounted.Load() && rec.cleanup != nil {
			in.sched.safeCleanup(in, rec)
		}
	}
}
