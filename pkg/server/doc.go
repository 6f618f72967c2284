// Package server hosts loom instances over HTTP and WebSocket. It is the
// rendering/reconciliation collaborator of the kernel: each session owns a
// scheduler and a root instance, dispatches client events into handlers,
// flushes the scheduler, diffs committed trees, and ships the resulting
// patches to the thin client in one frame per turn.
package server
