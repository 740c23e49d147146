package pagetable

import (
	"rv39kernel/frame"
	"rv39kernel/ktoken"
	"rv39kernel/machine"
	"rv39kernel/platform"
)

/// bootFrame2 is the literal frame backing boot L2 entry 511's R/W/X
/// mapping, per spec §4.3's boot template definition. Unlike the
/// kernel-half huge-page entries below, this one names a 4 KiB frame
/// directly (a boot-only trampoline mapping), not a huge-page index, so it
/// is built with leafEntry rather than l2HugeLeafEntry.
const bootFrame2 frame.Index = 2

/// kernelHalfStart is the first L2 index covered by the boot template's
/// huge-page kernel half.
const kernelHalfStart = 256

/// kernelHalfEnd is the last L2 index covered by the huge-page kernel half
/// (inclusive); index 511 is reserved for the template's final special
/// entry / the kernel L1 pointer.
const kernelHalfEnd = 510

/// lastIndex is the final L2 slot (511): the boot template's literal
/// frame-2 mapping, replaced with the kernel L1 pointer by every user L2.
const lastIndex = machine.L2Entries - 1

/// BootTemplate returns the constant 512-entry L2 seed used both for the
/// boot table itself (which has no kernel L1 yet) and as the starting
/// point for every user L2 (which replaces entry 511). Low half [0,255] is
/// invalid; [256,510] are 1 GiB huge-page kernel mappings of huge-page
/// index (index-256) with R/W permissions, i.e. physical address
/// (index-256)*1GiB; entry 511 maps bootFrame2 with RWX.
func BootTemplate() rawTable {
	var t rawTable
	for i := kernelHalfStart; i <= kernelHalfEnd; i++ {
		t[i] = l2HugeLeafEntry(i-kernelHalfStart, ReadWrite, false, true)
	}
	t[lastIndex] = leafEntry(bootFrame2, ReadWriteExecute, false, true)
	return t
}

/// L2Table is the root level of the Sv39 tree. reg and childTag live on the
/// wrapper, not the frame-resident cell, so the cell itself can occupy
/// exactly one page (see tableCell).
type L2Table struct {
	arc      frame.Arc[tableCell]
	reg      *frame.Registry
	childTag CapTag
}

/// NewL2Table allocates an L2 table seeded with BootTemplate, then
/// overwrites its last entry with an interior pointer to the globally
/// shared kernel L1 table. Fails if idx's frame is not claimable.
func NewL2Table(reg *frame.Registry, idx frame.Index, token *ktoken.Token) (L2Table, bool) {
	arc, ok := frame.New(reg, idx, frame.Internal, tableCell{})
	if !ok {
		return L2Table{}, false
	}
	t := L2Table{arc: arc, reg: reg, childTag: CapL1Table}
	entries := t.arc.Deref().BorrowMut(token)
	*entries = BootTemplate()

	kernelL1 := KernelL1(token)
	_, l1idx := kernelL1.Clone().IntoRaw()
	entries[lastIndex] = interiorEntry(l1idx, true)
	return t, true
}

/// NewBootL2Table allocates the raw boot L2 table used before any kernel L1
/// exists, seeded with BootTemplate verbatim (entry 511 left as the literal
/// frame-2 mapping rather than a kernel-L1 pointer).
func NewBootL2Table(reg *frame.Registry, idx frame.Index, token *ktoken.Token) (L2Table, bool) {
	arc, ok := frame.New(reg, idx, frame.Internal, tableCell{})
	if !ok {
		return L2Table{}, false
	}
	t := L2Table{arc: arc, reg: reg, childTag: CapL1Table}
	*t.arc.Deref().BorrowMut(token) = BootTemplate()
	return t, true
}

/// FromRawL2 resurrects an L2Table from a bare frame index previously
/// produced by IntoRaw.
func FromRawL2(reg *frame.Registry, idx frame.Index) L2Table {
	return L2Table{arc: frame.FromRaw[tableCell](reg, idx), reg: reg, childTag: CapL1Table}
}

/// Index returns the backing frame index.
func (t L2Table) Index() frame.Index { return t.arc.Index() }

/// Clone shares ownership of the same L2 table.
func (t L2Table) Clone() L2Table {
	return L2Table{arc: t.arc.Clone(), reg: t.reg, childTag: t.childTag}
}

/// Drop releases this handle, dropping the L1 tables it still points at
/// (including its shared clone of the kernel L1) if this was the last live
/// handle.
func (t L2Table) Drop() {
	t.arc.DropFunc(func() {
		destroyTable(t.reg, t.arc.Deref(), t.childTag, false)
	})
}

/// MapL1Table writes an interior entry at index pointing at l1. index must
/// satisfy 0 < index < 256: the low half is user-mappable, the high half is
/// kernel-reserved (indices 256-511 are populated by BootTemplate/New and
/// must not be overwritten by user mappings).
func (t L2Table) MapL1Table(token *ktoken.Token, index int, l1 L1Table) {
	if index <= 0 || index >= kernelHalfStart {
		panic("pagetable: L2 index out of the user-mappable range")
	}
	_, idx := l1.Clone().IntoRaw()
	entries := t.arc.Deref().BorrowMut(token)
	entries[index] = interiorEntry(idx, false)
}

/// EntryAt returns the raw entry at index, for diagnostics, tests, and
/// spec property 7's boot-table-template check.
func (t L2Table) EntryAt(token *ktoken.Token, index int) Entry {
	boundsCheck(index)
	return t.arc.Deref().Borrow(token)[index]
}

/// IntoRaw forgets this handle, returning the CapL2Table tag and frame
/// index for embedding in a capability entry (an L2 table is never pointed
/// at by an interior entry of another table -- it is always the root).
func (t L2Table) IntoRaw() (CapTag, frame.Index) {
	return CapL2Table, t.arc.IntoRaw()
}

/// hartSlots tracks, per hart, the previously activated L2 table so
/// Activate can reclaim it on the next activation. Bounded small: the
/// core wires up a single boot hart (spec Non-goals), but the token
/// permits more.
const maxHarts = 8

var hartSlots ktoken.Cell[[maxHarts]satpSlot]

type satpSlot struct {
	active bool
	idx    frame.Index
}

/// Activate writes the supervisor address-translation register to
/// Sv39|frame_number_of_this_table and fences the TLB. On first activation
/// on hart, a plain store is used (no previous context to reclaim); on
/// subsequent activations the previously installed table's handle is
/// reconstructed from the swapped-out satp value and dropped, keeping
/// refcount accuracy exact.
func (t L2Table) Activate(token *ktoken.Token, hart int) {
	cloned := t.arc.Clone()
	_, idx := cloned.IntoRaw()

	slots := hartSlots.BorrowMut(token)
	prev := slots[hart]
	slots[hart] = satpSlot{active: true, idx: idx}

	satp := platform.MakeSatp(uint64(idx))
	if !prev.active {
		platform.SwapSatpFn(satp) // plain install; no prior table to reclaim
	} else {
		prevSatp := platform.SwapSatpFn(satp)
		if platform.SatpActive(prevSatp) {
			reclaimed := FromRawL2(t.registry(), frame.Index(platform.SatpFrame(prevSatp)))
			reclaimed.Drop()
		}
	}
	platform.FenceTLBFn()
}

func (t L2Table) registry() *frame.Registry { return t.reg }

func init() {
	RegisterCapDrop(CapL2Table, func(reg *frame.Registry, idx frame.Index) {
		FromRawL2(reg, idx).Drop()
	})
}
