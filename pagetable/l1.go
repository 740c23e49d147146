package pagetable

import (
	"rv39kernel/frame"
	"rv39kernel/ktoken"
)

/// L1Table is the middle level of the Sv39 tree: 512 interior entries, each
/// pointing at an L0 table. reg and childTag live on the wrapper, not the
/// frame-resident cell, so the cell itself can occupy exactly one page (see
/// tableCell).
type L1Table struct {
	arc      frame.Arc[tableCell]
	reg      *frame.Registry
	childTag CapTag
}

/// NewL1Table allocates an empty (all-invalid) L1 table at idx.
func NewL1Table(reg *frame.Registry, idx frame.Index) (L1Table, bool) {
	arc, ok := frame.New(reg, idx, frame.Internal, tableCell{})
	if !ok {
		return L1Table{}, false
	}
	return L1Table{arc: arc, reg: reg, childTag: CapL0Table}, true
}

/// FromRawL1 resurrects an L1Table from a bare frame index previously
/// produced by IntoRaw.
func FromRawL1(reg *frame.Registry, idx frame.Index) L1Table {
	return L1Table{arc: frame.FromRaw[tableCell](reg, idx), reg: reg, childTag: CapL0Table}
}

/// Index returns the backing frame index.
func (t L1Table) Index() frame.Index { return t.arc.Index() }

/// Clone shares ownership of the same L1 table.
func (t L1Table) Clone() L1Table {
	return L1Table{arc: t.arc.Clone(), reg: t.reg, childTag: t.childTag}
}

/// Drop releases this handle, dropping the L0 tables it still points at if
/// this was the last live handle.
func (t L1Table) Drop() {
	t.arc.DropFunc(func() {
		destroyTable(t.reg, t.arc.Deref(), t.childTag, false)
	})
}

/// MapL0Table writes a user interior entry at index pointing at l0, moving
/// a cloned reference to l0 into the table.
func (t L1Table) MapL0Table(token *ktoken.Token, index int, l0 L0Table) {
	boundsCheck(index)
	_, idx := l0.Clone().IntoRaw()
	entries := t.arc.Deref().BorrowMut(token)
	entries[index] = interiorEntry(idx, false)
}

/// MapL0KernelTable writes a kernel interior entry (global bit set) at
/// index pointing at l0.
func (t L1Table) MapL0KernelTable(token *ktoken.Token, index int, l0 L0Table) {
	boundsCheck(index)
	_, idx := l0.Clone().IntoRaw()
	entries := t.arc.Deref().BorrowMut(token)
	entries[index] = interiorEntry(idx, true)
}

/// EntryAt returns the raw entry at index, for diagnostics and tests.
func (t L1Table) EntryAt(token *ktoken.Token, index int) Entry {
	boundsCheck(index)
	return t.arc.Deref().Borrow(token)[index]
}

/// IntoRaw forgets this handle, returning the CapL1Table tag and frame
/// index for embedding in a parent L2 interior entry or a capability entry.
func (t L1Table) IntoRaw() (CapTag, frame.Index) {
	return CapL1Table, t.arc.IntoRaw()
}

func init() {
	RegisterCapDrop(CapL1Table, func(reg *frame.Registry, idx frame.Index) {
		FromRawL1(reg, idx).Drop()
	})
}
