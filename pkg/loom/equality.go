package loom

import "reflect"

// sameValue reports whether two opaque values are identical under shallow
// comparison. Comparable values use ==; non-comparable values (slices,
// maps, functions) are never equal, so a freshly built slice always counts
// as a change. This is intentionally identity-like rather than deep
// equality: the bail-out optimization must never suppress a render for a
// value that was rebuilt.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	// Comparability is a property of the value, not only the type: an
	// array or struct with a comparable type can still hold a slice at
	// runtime, and == would panic on it.
	if !va.Comparable() {
		return false
	}

	return va.Equal(vb)
}

// depsEqual compares two dependency lists element-wise.
// Both lists must be non-nil; nil handling is the caller's concern because
// a nil list has different semantics (run on every commit) than an empty one.
func depsEqual(prev, next []any) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if !sameValue(prev[i], next[i]) {
			return false
		}
	}
	return true
}
