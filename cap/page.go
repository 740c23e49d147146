// Package cap implements the three page capability kinds a leaf L0 entry
// can name (spec §3/§6): internal kernel-image pages, normal user pages,
// and external MMIO windows. All three share the same frame.Arc machinery
// as the table levels in package pagetable, generalizing
// Oichkatzelesfrettschen-biscuit/biscuit/src/mem/mem.go's Page_t (a single
// refcounted 4 KiB unit) into three named-kind wrappers instead of one
// generic parameterized type, per SPEC_FULL.md §4.2: a kernel capability taxonomy reads better as three
// small named types than as PageCap[K Kind].
package cap

import (
	"rv39kernel/frame"
	"rv39kernel/machine"
	"rv39kernel/pagetable"
)

/// pageBytes is the frame-resident payload shared by every page kind: the
/// raw 4 KiB contents, addressed with no further structure.
type pageBytes [machine.PageSize]byte

/// NormalPage is an ordinary, freshly-owned user page: zero-initialized or
/// seeded from a byte slice at construction, reclaimed (no Destroy side
/// effect beyond the registry's own bookkeeping) when its last handle
/// drops.
type NormalPage struct {
	arc frame.Arc[pageBytes]
}

/// NewNormalPage claims idx as a Normal frame and copies the first
/// len(seed) bytes of seed into it (the rest left zeroed). Fails if idx is
/// not claimable as Normal.
func NewNormalPage(reg *frame.Registry, idx frame.Index, seed []byte) (NormalPage, bool) {
	arc, ok := frame.New(reg, idx, frame.Normal, pageBytes{})
	if !ok {
		return NormalPage{}, false
	}
	copy(arc.Deref()[:], seed)
	return NormalPage{arc: arc}, true
}

/// FromRawNormalPage resurrects a NormalPage from a bare frame index
/// previously produced by IntoRaw.
func FromRawNormalPage(reg *frame.Registry, idx frame.Index) NormalPage {
	return NormalPage{arc: frame.FromRaw[pageBytes](reg, idx)}
}

/// Index returns the backing frame index.
func (p NormalPage) Index() frame.Index { return p.arc.Index() }

/// Bytes returns the page's raw contents for direct read/write access; the
/// caller is responsible for any required synchronization (ordinary pages
/// carry no token, unlike a table's entries).
func (p NormalPage) Bytes() *pageBytes { return p.arc.Deref() }

/// Clone shares ownership of the same page.
func (p NormalPage) Clone() NormalPage { return NormalPage{arc: p.arc.Clone()} }

/// Drop releases this handle.
func (p NormalPage) Drop() { p.arc.Drop() }

/// IntoRaw forgets this handle, returning the CapPage tag and frame index
/// for embedding in an L0 capability entry.
func (p NormalPage) IntoRaw() (pagetable.CapTag, frame.Index) {
	return pagetable.CapPage, p.arc.IntoRaw()
}

/// InternalPage adopts a frame whose contents are part of the kernel image
/// (entry/text/static/thread_image sections named by spec §5's boot
/// composition) rather than constructed in place. It is never written
/// through this handle; only read and eventually mapped read-only or
/// executable into an address space.
type InternalPage struct {
	arc frame.Arc[pageBytes]
}

/// AssumeInternalPage adopts idx, already classified frame.Internal and
/// already holding live kernel-image bytes, as an InternalPage.
func AssumeInternalPage(reg *frame.Registry, idx frame.Index) (InternalPage, bool) {
	arc, ok := frame.AssumeInit[pageBytes](reg, idx, frame.Internal)
	if !ok {
		return InternalPage{}, false
	}
	return InternalPage{arc: arc}, true
}

/// FromRawInternalPage resurrects an InternalPage from a bare frame index.
func FromRawInternalPage(reg *frame.Registry, idx frame.Index) InternalPage {
	return InternalPage{arc: frame.FromRaw[pageBytes](reg, idx)}
}

/// Index returns the backing frame index.
func (p InternalPage) Index() frame.Index { return p.arc.Index() }

/// Bytes returns the page's contents, read-only by convention (nothing
/// enforces this at the Go level; callers follow the same discipline the
/// teacher's kernel-image pages do).
func (p InternalPage) Bytes() *pageBytes { return p.arc.Deref() }

/// Clone shares ownership of the same page.
func (p InternalPage) Clone() InternalPage { return InternalPage{arc: p.arc.Clone()} }

/// Drop releases this handle.
func (p InternalPage) Drop() { p.arc.Drop() }

/// IntoRaw forgets this handle, returning the CapPage tag and frame index.
func (p InternalPage) IntoRaw() (pagetable.CapTag, frame.Index) {
	return pagetable.CapPage, p.arc.IntoRaw()
}

/// ExternalPage adopts a frame backing an MMIO window: contents are device
/// registers, not memory, so construction never touches them (AssumeInit
/// only) and the page is always mapped uncached by convention of the
/// caller's choice of perms.
type ExternalPage struct {
	arc frame.Arc[pageBytes]
}

/// AssumeExternalPage adopts idx, already classified frame.External, as an
/// ExternalPage.
func AssumeExternalPage(reg *frame.Registry, idx frame.Index) (ExternalPage, bool) {
	arc, ok := frame.AssumeInit[pageBytes](reg, idx, frame.External)
	if !ok {
		return ExternalPage{}, false
	}
	return ExternalPage{arc: arc}, true
}

/// FromRawExternalPage resurrects an ExternalPage from a bare frame index.
func FromRawExternalPage(reg *frame.Registry, idx frame.Index) ExternalPage {
	return ExternalPage{arc: frame.FromRaw[pageBytes](reg, idx)}
}

/// Index returns the backing frame index.
func (p ExternalPage) Index() frame.Index { return p.arc.Index() }

/// Clone shares ownership of the same MMIO window.
func (p ExternalPage) Clone() ExternalPage { return ExternalPage{arc: p.arc.Clone()} }

/// Drop releases this handle. MMIO frames are never destroyed by the
/// registry (they don't belong to it in the usual sense), so Drop only
/// ever decrements the refcount the way every other page does.
func (p ExternalPage) Drop() { p.arc.Drop() }

/// IntoRaw forgets this handle, returning the CapPage tag and frame index.
func (p ExternalPage) IntoRaw() (pagetable.CapTag, frame.Index) {
	return pagetable.CapPage, p.arc.IntoRaw()
}

/// init registers one shared CapPage drop handler that resurrects a raw
/// CapPage frame index as an untyped page Arc and drops it, whichever kind
/// the registry has the frame classified as. The three kinds have identical Drop behavior (plain refcount decrement, no
/// Destroyer), so the choice only matters for the claim-kind check buried
/// in frame.FromRaw -- which performs none -- making a single untyped drop
/// sufficient in practice; the three accessors above remain for callers
/// that need to distinguish kind when reading back one of their own pages.
func init() {
	pagetable.RegisterCapDrop(pagetable.CapPage, func(reg *frame.Registry, idx frame.Index) {
		frame.FromRaw[pageBytes](reg, idx).Drop()
	})
}
