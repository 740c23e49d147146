package pagetable

import (
	"rv39kernel/frame"
	"rv39kernel/ktoken"
)

/// L0Table is the leaf level of the Sv39 tree: 512 entries, each either
/// invalid, a leaf mapping a 4 KiB page, or a non-present capability entry.
/// reg and isLeaf live on the wrapper, not the frame-resident cell, so the
/// cell itself can occupy exactly one page (see tableCell).
type L0Table struct {
	arc    frame.Arc[tableCell]
	reg    *frame.Registry
	isLeaf bool
}

/// NewL0Table allocates an empty (all-invalid) L0 table at idx.
func NewL0Table(reg *frame.Registry, idx frame.Index) (L0Table, bool) {
	arc, ok := frame.New(reg, idx, frame.Internal, tableCell{})
	if !ok {
		return L0Table{}, false
	}
	return L0Table{arc: arc, reg: reg, isLeaf: true}, true
}

/// FromRawL0 resurrects an L0Table from a bare frame index previously
/// produced by IntoRaw.
func FromRawL0(reg *frame.Registry, idx frame.Index) L0Table {
	return L0Table{arc: frame.FromRaw[tableCell](reg, idx), reg: reg, isLeaf: true}
}

/// Index returns the backing frame index.
func (t L0Table) Index() frame.Index { return t.arc.Index() }

/// Clone shares ownership of the same L0 table.
func (t L0Table) Clone() L0Table { return L0Table{arc: t.arc.Clone(), reg: t.reg, isLeaf: t.isLeaf} }

/// Drop releases this handle. If this was the last live handle, every
/// capability entry and every ordinary mapped page still installed is
/// resurrected and dropped in turn -- give_capability/map_l0_page's
/// ownership transfer only completes once the table that received it is
/// itself reclaimed.
func (t L0Table) Drop() {
	t.arc.DropFunc(func() {
		destroyTable(t.reg, t.arc.Deref(), 0, t.isLeaf)
	})
}

/// MapL0Page writes a user leaf entry at index mapping page, moving
/// ownership of page into the table the way into_raw moves ownership of an
/// Arc into a raw pointer -- the table's eventual Drop reclaims it. Panics
/// if index is out of range.
func (t L0Table) MapL0Page(token *ktoken.Token, index int, page Capability, perms Perms) {
	boundsCheck(index)
	_, idx := page.IntoRaw()
	entries := t.arc.Deref().BorrowMut(token)
	entries[index] = leafEntry(idx, perms, true, false)
}

/// MapL0KernelPage writes a kernel leaf entry (global bit set, user bit
/// clear) at index, moving ownership of page into the table.
func (t L0Table) MapL0KernelPage(token *ktoken.Token, index int, page Capability, perms Perms) {
	boundsCheck(index)
	_, idx := page.IntoRaw()
	entries := t.arc.Deref().BorrowMut(token)
	entries[index] = leafEntry(idx, perms, false, true)
}

/// GiveCapability writes a non-present capability entry at index, moving
/// ownership of cap into the table the way into_raw moves ownership of an
/// Arc into a raw pointer. Exactly one GiveCapability site should exist per
/// capability; the table's eventual Drop decodes and drops it.
func (t L0Table) GiveCapability(token *ktoken.Token, index int, cap Capability) {
	boundsCheck(index)
	tag, idx := cap.IntoRaw()
	entries := t.arc.Deref().BorrowMut(token)
	entries[index] = capabilityEntry(tag, idx)
}

/// DecodeCapabilityAt returns the tag and frame index of the capability
/// entry at index, without consuming it. Used by tests and diagnostics;
/// spec scenario S5's round-trip check reads this without dropping.
func (t L0Table) DecodeCapabilityAt(token *ktoken.Token, index int) (CapTag, frame.Index, bool) {
	boundsCheck(index)
	e := t.arc.Deref().Borrow(token)[index]
	if !e.IsCapability() {
		return 0, 0, false
	}
	return e.CapTagValue(), e.PPN(), true
}

/// EntryAt returns the raw entry at index, for diagnostics and tests.
func (t L0Table) EntryAt(token *ktoken.Token, index int) Entry {
	boundsCheck(index)
	return t.arc.Deref().Borrow(token)[index]
}

/// IntoRaw forgets this handle, returning the CapL0Table tag and frame
/// index for embedding in a parent L1 interior entry or a capability entry.
func (t L0Table) IntoRaw() (CapTag, frame.Index) {
	return CapL0Table, t.arc.IntoRaw()
}

func init() {
	RegisterCapDrop(CapL0Table, func(reg *frame.Registry, idx frame.Index) {
		FromRawL0(reg, idx).Drop()
	})
}
