package loom

import "fmt"

// stateCell holds one unit of private mutable state owned by an instance.
// Its position index within the instance is stable for the instance's
// lifetime. Mutations replace the stored value; the value itself is never
// mutated in place by the kernel.
type stateCell struct {
	index int
	value any
}

// Setter writes new values into one state cell. A Setter stays valid for
// the lifetime of its instance; calling it after unmount is a logged no-op.
type Setter[T any] struct {
	in   *Instance
	cell *stateCell
}

// Set replaces the cell's value. If the new value is identical to the
// current one (shallow, identity-like comparison), the instance is not
// marked dirty and no re-render happens.
func (s *Setter[T]) Set(value T) {
	s.write(func(T) T { return value })
}

// Update computes the replacement from the cell's current value. Multiple
// Update calls within one turn compose: each sees the result of the
// previous one, so three increments before a flush yield +3 in a single
// re-render.
func (s *Setter[T]) Update(fn func(T) T) {
	s.write(fn)
}

func (s *Setter[T]) write(fn func(T) T) {
	if s.in.unmounted.Load() {
		s.in.sched.logger.Warn(CodeSetAfterUnmount+" setter called after unmount, ignoring",
			"instance", s.in.id, "cell", s.cell.index)
		return
	}

	cur, _ := s.cell.value.(T)
	next := fn(cur)

	if sameValue(s.cell.value, next) {
		return
	}

	s.cell.value = next
	s.in.sched.notify(s.in)
}

// UseState registers (or, on later renders, retrieves) the state cell at
// the next position index of the instance. On first call the cell is
// seeded with initial; afterwards initial is ignored and the cell's
// current value is returned.
//
// Must be called unconditionally during render, in the same order, on
// every render of the instance.
func UseState[T any](in *Instance, initial T) (T, *Setter[T]) {
	return UseStateLazy(in, func() T { return initial })
}

// UseStateLazy is UseState with a producer for the initial value. The
// producer is evaluated exactly once, on the render that allocates the
// cell, which matters when computing the initial value is expensive.
func UseStateLazy[T any](in *Instance, initial func() T) (T, *Setter[T]) {
	in.trackHook(hookState)

	idx := in.cellIdx
	in.cellIdx++

	var cell *stateCell
	if idx < len(in.cells) {
		cell = in.cells[idx]
	} else {
		value, ok := seedValue[T](in, idx)
		if !ok {
			value = initial()
		}
		cell = &stateCell{index: idx, value: value}
		in.cells = append(in.cells, cell)
	}

	value, ok := cell.value.(T)
	if !ok {
		// A different type at the same position index means the caller's
		// hook sequence desynced from the recorded order.
		in.reportDesync(fmt.Sprintf("cell type changed at index %d", idx))
		value = initial()
		cell.value = value
	}

	return value, &Setter[T]{in: in, cell: cell}
}
