package frame

import (
	"unsafe"

	"rv39kernel/defs"
	"rv39kernel/machine"
)

/// Destroyer is implemented by payload types that need to run cleanup when
/// the last Arc handle referencing them is dropped. Types that don't
/// implement it are simply left as-is (their frame's contents become
/// indeterminate once the refcount returns to the unused sentinel).
type Destroyer interface {
	Destroy()
}

/// Arc is a shared-ownership smart handle to a T-typed payload placed in a
/// frame. It holds only a frame index; Deref consults the registry's
/// mapping base to compute the payload's virtual address. The zero value
/// is not a valid Arc -- use New or FromRaw.
///
/// size_of(T) and align_of(T) must both be <= machine.PageSize; New checks
/// this at construction time (the spec calls for a static assertion, which
/// Go's type system cannot express here, so the check is a runtime guard
/// instead).
type Arc[T any] struct {
	reg *Registry
	idx Index
}

/// New attempts the unique 0->live transition for idx, constructs value in
/// place at the frame's payload address, and returns the resulting handle.
/// It fails if idx's frame is already live or its registered kind does not
/// equal kind.
func New[T any](reg *Registry, idx Index, kind Kind, value T) (Arc[T], bool) {
	if unsafe.Sizeof(value) > uintptr(machine.PageSize) {
		panic("frame: payload exceeds page size")
	}
	if unsafe.Alignof(value) > uintptr(machine.PageSize) {
		panic("frame: payload alignment exceeds page size")
	}
	if err := reg.claim(idx, kind); err != 0 {
		return Arc[T]{}, false
	}
	p := (*T)(unsafe.Pointer(reg.payloadAddr(idx)))
	*p = value
	reg.finishClaim(idx)
	return Arc[T]{reg: reg, idx: idx}, true
}

/// AssumeInit adopts a frame whose payload is already initialized and whose
/// kind is already registered as kind (used for Internal kernel-image
/// pages and External MMIO windows, which are never constructed in place).
func AssumeInit[T any](reg *Registry, idx Index, kind Kind) (Arc[T], bool) {
	if err := reg.claim(idx, kind); err != 0 {
		return Arc[T]{}, false
	}
	reg.finishClaim(idx)
	return Arc[T]{reg: reg, idx: idx}, true
}

/// Index returns the frame index this handle refers to.
func (a Arc[T]) Index() Index {
	return a.idx
}

/// Valid reports whether a refers to a live frame (false for the Arc zero
/// value).
func (a Arc[T]) Valid() bool {
	return a.reg != nil
}

/// Deref returns a pointer to the payload, computed fresh from the
/// registry's mapping base on every call (the handle itself carries no
/// cached virtual address, per spec: "dereferencing consults the
/// registry's frame-mapping base").
func (a Arc[T]) Deref() *T {
	return (*T)(unsafe.Pointer(a.reg.payloadAddr(a.idx)))
}

/// Clone increments the reference count and returns a new handle sharing
/// ownership of the same frame.
func (a Arc[T]) Clone() Arc[T] {
	a.reg.clone(a.idx)
	return Arc[T]{reg: a.reg, idx: a.idx}
}

/// Drop decrements the reference count. If this was the last live handle,
/// it runs the payload's destructor (if T implements Destroyer) and stores
/// the unused sentinel.
func (a Arc[T]) Drop() {
	a.DropFunc(func() {
		if d, ok := any(a.Deref()).(Destroyer); ok {
			d.Destroy()
		}
	})
}

/// DropFunc decrements the reference count. If this was the last live
/// handle, it invokes destroy (if non-nil) before storing the unused
/// sentinel, then stores it -- the same sequencing Drop uses for a T
/// implementing Destroyer, for callers whose cleanup needs context that
/// cannot live inside the frame-resident payload itself (e.g. a table
/// capability's owning registry and child tag, which must stay out of T so
/// T can occupy the full page, per spec §4.1).
func (a Arc[T]) DropFunc(destroy func()) {
	if a.reg.drop(a.idx) {
		if destroy != nil {
			destroy()
		}
		a.reg.release(a.idx)
	}
}

/// IntoRaw forgets this handle, returning its bare frame index for
/// embedding into a page-table entry. The refcount is left unchanged --
/// ownership moves into whatever encoding consumes the index.
func (a Arc[T]) IntoRaw() Index {
	return a.idx
}

/// FromRaw resurrects a handle from a bare frame index previously produced
/// by IntoRaw. The caller must ensure exactly one FromRaw pairs with each
/// IntoRaw (the spec's "every encoding site must be paired with exactly
/// one decoding site").
func FromRaw[T any](reg *Registry, idx Index) Arc[T] {
	return Arc[T]{reg: reg, idx: idx}
}

/// RegistryErrKind reports the ENXIO/EAGAIN/EINVAL distinction New's
/// failure collapsed into a bool for the caller's diagnostics.
func RegistryErrKind(reg *Registry, idx Index, kind Kind) defs.Err_t {
	if !idx.Valid() {
		return defs.EINVAL
	}
	if reg.Kind(idx) != kind {
		return defs.ENXIO
	}
	return defs.EAGAIN
}
