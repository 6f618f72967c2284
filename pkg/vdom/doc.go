// Package vdom provides the output description consumed by the loom
// runtime: a lazy, restartable virtual node tree, a keyed diff that
// produces patches, and helpers for building trees in Go.
//
// Nodes are plain data. A render function builds a fresh tree every pass;
// the hosting layer diffs it against the previously committed tree and
// ships the resulting patches to whatever applies them.
package vdom
