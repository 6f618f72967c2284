package loom

// Seed provides a persisted initial value for the state cell at one
// position index. When an instance is mounted with seeds, UseState prefers
// a decodable seed over the render function's initial value, which is how
// a resumed session restores its serializable cells.
type Seed interface {
	// Decode writes the persisted value into the pointed-to target and
	// reports whether it succeeded. A failed decode falls back to the
	// render function's initial value.
	Decode(into any) bool
}

// MountOption configures an instance at mount time.
type MountOption func(*Instance)

// WithSeeds supplies persisted cell values, in position-index order.
// Positions past the end of the slice (and nil entries) seed normally.
func WithSeeds(seeds []Seed) MountOption {
	return func(in *Instance) {
		in.seeds = seeds
	}
}

// CellValues returns a copy of the instance's current cell values in
// position-index order. Values are whatever the render function stored;
// serializing them is the caller's concern. Returns nil after unmount.
func (in *Instance) CellValues() []any {
	if in.unmounted.Load() {
		return nil
	}

	values := make([]any, len(in.cells))
	for i, cell := range in.cells {
		values[i] = cell.value
	}
	return values
}

// seedValue attempts to decode the seed at the given position index.
func seedValue[T any](in *Instance, idx int) (T, bool) {
	var v T
	if idx >= len(in.seeds) || in.seeds[idx] == nil {
		return v, false
	}
	if !in.seeds[idx].Decode(&v) {
		return v, false
	}
	return v, true
}
