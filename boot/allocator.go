// Package boot composes the frame registry, page-table capabilities, and
// thread capability into a running kernel, and drives the resume/trap
// dispatch loop (spec §4.7).
//
// Grounded on Oichkatzelesfrettschen-biscuit/biscuit/src/mem/mem.go's
// Phys_init (the descending-bump-allocator-over-a-frame-range shape) and
// vm/as.go's page-walk composition (allocate-a-level, recurse, wire-up
// pattern used here for the kernel L1 and user address-space build).
package boot

import "rv39kernel/frame"

/// Allocator is a linear bump allocator walking a frame range downward
/// from its upper bound, per spec §4.7. It hands out indices to capability
/// constructors during boot only; nothing in the running kernel allocates
/// through it afterward (spec Non-goals: no dynamic kernel heap).
type Allocator struct {
	next frame.Index
	low  frame.Index
	high frame.Index
}

/// NewAllocator creates an allocator walking [low, high) downward,
/// starting just below high.
func NewAllocator(low, high frame.Index) *Allocator {
	return &Allocator{next: high, low: low, high: high}
}

/// Next hands out the next frame index, descending. Fails once the range
/// is exhausted.
func (a *Allocator) Next() (frame.Index, bool) {
	if a.next <= a.low {
		return 0, false
	}
	a.next--
	return a.next, true
}

/// Claimed reports how many frames have been handed out so far.
func (a *Allocator) Claimed() uint32 {
	return uint32(a.high - a.next)
}

/// Remaining reports how many frames are still available.
func (a *Allocator) Remaining() uint32 {
	return uint32(a.next - a.low)
}
