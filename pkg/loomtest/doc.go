// Package loomtest provides testing helpers for loom components.
//
// The harness mounts a component on a private scheduler and plays the
// host's role: it commits trees, assigns hydration IDs, collects event
// handlers and records patches, so component tests can fire events and
// assert on the output without a server.
//
//	func TestCounter(t *testing.T) {
//	    h := loomtest.Mount(t, Counter)
//	    h.ExpectContains("clicked 0")
//	    h.Click("h1")
//	    h.ExpectContains("clicked 1")
//	}
package loomtest
