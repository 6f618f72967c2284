// Package loom implements the reactive runtime kernel: position-indexed
// state cells owned by component instances, and an effect scheduler that
// ties side effects to the mount/update/unmount lifecycle.
//
// The kernel follows a strict two-phase commit model. Render functions are
// pure and synchronous: they read cell values and register hooks against an
// explicit *Instance handle. After a render is committed, the effect phase
// runs: stale effects are cleaned up and rescheduled effects execute. All
// scheduling is single-threaded and cooperative; the host drives the cycle
// via Scheduler.Flush.
//
// Hooks must be called unconditionally, in the same order, on every render
// of an instance. Violations are reported as correlation diagnostics and
// panic when DebugMode is enabled.
package loom
