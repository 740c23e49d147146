// Package frame implements the process-wide frame registry and the
// frame-backed shared handle (Arc) that capability types are built on.
//
// Grounded on Oichkatzelesfrettschen-biscuit/biscuit/src/mem/mem.go's
// Physmem_t: a flat array indexed by frame number, holding a reference
// count per frame, with construction/destruction serialized by a
// compare-exchange rather than a lock around the whole table.
package frame

import (
	"sync/atomic"

	"rv39kernel/defs"
	"rv39kernel/machine"
)

/// Kind classifies a frame's provenance. Set once at registry
/// initialization from platform knowledge and immutable thereafter except
/// through the explicit MarkNormal/MarkDevice setup hooks.
type Kind uint8

const (
	/// Unclassified is the zero value: no user-visible capability may ever
	/// claim a frame that is still Unclassified.
	Unclassified Kind = iota
	/// Internal frames hold kernel-owned objects (page tables, the kernel
	/// image, thread/call records).
	Internal
	/// Normal frames are free RAM available for user-visible pages.
	Normal
	/// External frames are MMIO windows adopted as-is.
	External
)

//go:generate stringer -type=Kind

/// Index identifies one physical frame, bounded by machine.FrameCount.
type Index uint32

/// Valid reports whether idx is within the registry's bound.
func (idx Index) Valid() bool {
	return idx < machine.FrameCount
}

/// Addr returns the physical byte address of the frame.
func (idx Index) Addr() uintptr {
	return uintptr(idx) << machine.PageShift
}

/// FromAddr converts a page-aligned physical address back to a frame index.
func FromAddr(addr uintptr) Index {
	return Index(addr >> machine.PageShift)
}

/// unusedSentinel is the refcount value meaning "no live handle"; the
/// payload's contents are indeterminate at this count.
const unusedSentinel uint32 = 0

/// steadyState is the refcount a freshly constructed frame is left at: one
/// slot reserved for "in construction/destruction", one for the first live
/// handle.
const steadyState uint32 = 2

/// cloneCeiling bounds the refcount a clone may reach before Arc.Clone
/// traps; per spec design note (c) this may be tightened but never
/// loosened.
const cloneCeiling = ^uint32(0) / 2

type slot struct {
	kind    Kind
	refcnt  atomic.Uint32
	cpumask atomic.Uint64
}

/// Registry is the process-wide, per-frame kind+refcount table plus the
/// mapping base used to recover a virtual address for a frame's payload.
/// There is exactly one Registry instance in the running kernel
/// (the Global package var), mirroring mem.Physmem in the teacher.
type Registry struct {
	slots       []slot
	mappingBase uintptr
	initialized bool
}

/// Global is the process-wide frame registry.
var Global = &Registry{}

/// Init allocates the per-frame slot table and installs the frame-mapping
/// base. It must run exactly once, before any capability exists.
func (r *Registry) Init(mappingBase uintptr) {
	if r.initialized {
		panic("frame: registry already initialized")
	}
	r.slots = make([]slot, machine.FrameCount)
	r.mappingBase = mappingBase
	r.initialized = true
}

/// MarkNormal classifies idx as free RAM available for user-visible pages.
/// Only valid before any capability for idx exists; called from setup code
/// during boot.
func (r *Registry) MarkNormal(idx Index) {
	r.markKind(idx, Normal)
}

/// MarkDevice classifies idx as an MMIO window.
func (r *Registry) MarkDevice(idx Index) {
	r.markKind(idx, External)
}

/// MarkInternal classifies idx as kernel-owned (image pages, tables,
/// thread/call records).
func (r *Registry) MarkInternal(idx Index) {
	r.markKind(idx, Internal)
}

func (r *Registry) markKind(idx Index, k Kind) {
	if !idx.Valid() {
		panic("frame: index out of range")
	}
	s := &r.slots[idx]
	if s.kind != Unclassified {
		panic("frame: kind already set")
	}
	s.kind = k
}

/// Kind reports the registered kind of idx.
func (r *Registry) Kind(idx Index) Kind {
	return r.slots[idx].kind
}

/// Refcnt returns the current raw refcount of idx, for diagnostics and
/// tests. It is not the logical reference count seen by callers (which is
/// Refcnt()-1 once live); see Arc for the public meaning.
func (r *Registry) Refcnt(idx Index) uint32 {
	return r.slots[idx].refcnt.Load()
}

/// payloadAddr computes the virtual address of a frame's payload via the
/// registry's mapping base.
func (r *Registry) payloadAddr(idx Index) uintptr {
	if !r.initialized {
		panic("frame: registry not initialized")
	}
	return r.mappingBase + idx.Addr()
}

/// claim attempts the unique 0->steadyState transition for idx, gated on
/// idx's registered kind matching want. Returns 0 on success, or EINVAL
/// (index out of range), ENXIO (kind mismatch) or EAGAIN (already live).
func (r *Registry) claim(idx Index, want Kind) defs.Err_t {
	if !idx.Valid() {
		return defs.EINVAL
	}
	s := &r.slots[idx]
	if s.kind != want {
		return defs.ENXIO
	}
	if !s.refcnt.CompareAndSwap(unusedSentinel, 1) {
		return defs.EAGAIN
	}
	return 0
}

/// finishClaim stores the steady-state count, completing a claim begun by
/// claim. Split from claim so the payload constructor runs between the two
/// (matching the spec's "transitions to 1, constructs in place, then stores
/// 2" sequencing).
func (r *Registry) finishClaim(idx Index) {
	r.slots[idx].refcnt.Store(steadyState)
}

/// abortClaim reverts a claim when payload construction cannot proceed
/// (e.g. a size/alignment assertion failed before anything was written).
func (r *Registry) abortClaim(idx Index) {
	r.slots[idx].refcnt.Store(unusedSentinel)
}

/// clone performs the fetch-add(1) shared by every Arc.Clone.
func (r *Registry) clone(idx Index) {
	c := r.slots[idx].refcnt.Add(1)
	if c > cloneCeiling {
		panic("frame: refcount overflow")
	}
}

/// drop performs the fetch-sub(1) shared by every Arc.Drop and reports
/// whether this was the last live handle (raw count reached 1).
func (r *Registry) drop(idx Index) bool {
	c := r.slots[idx].refcnt.Add(^uint32(0)) // -1
	return c == 1
}

/// release stores the unused sentinel with release ordering, completing
/// destruction after the caller has run the payload destructor.
func (r *Registry) release(idx Index) {
	r.slots[idx].refcnt.Store(unusedSentinel)
}

/// TlbMask returns the per-frame bitmask slot for harts that have this
/// frame (a page-table root) loaded in satp. Nothing in the kernel sets or
/// reads it yet; the TLB fence is local to the calling hart. Mirrors
/// mem.Physmem_t.Tlbaddr.
func (r *Registry) TlbMask(idx Index) *atomic.Uint64 {
	return &r.slots[idx].cpumask
}
