package pagetable

import (
	"rv39kernel/frame"
	"rv39kernel/ktoken"
	"rv39kernel/machine"
)

/// rawTable is the frame-resident payload shape every level shares: 512
/// eight-byte entries filling exactly one 4 KiB frame. This -- wrapped in
/// ktoken.Cell, which adds no bytes of its own -- is the entire type
/// parameter every table level's Arc is built over: frame.New's page-size
/// guard requires size_of(T) <= machine.PageSize, so none of a table's
/// bookkeeping (owning registry, child tag, leaf-ness) can live inside T.
/// That context lives on the capability wrapper (L0Table/L1Table/L2Table)
/// instead, per spec §4.1's "let the payload occupy the full page".
type rawTable [512]Entry

/// tableCell is the concrete frame-resident type every level's Arc wraps.
/// ktoken.Cell[T] is a bare single-field wrapper, so
/// unsafe.Sizeof(tableCell{}) == unsafe.Sizeof(rawTable{}) == 4096 exactly.
type tableCell = ktoken.Cell[rawTable]

/// destroyTable runs once, when a table's last live handle is dropped:
/// every interior entry's child table (or, at L0, every capability entry
/// and every ordinary leaf page) is resurrected and dropped in turn,
/// completing the encode/decode pairing the spec requires for
/// give_capability, map_l0_page/map_l0_kernel_page, and
/// map_l1_table/map_l0_table alike. Invoked from each wrapper's Drop via
/// Arc.DropFunc, since the cleanup context (reg, childTag, isLeaf) lives on
/// the wrapper now, not inside the frame-resident cell itself.
func destroyTable(reg *frame.Registry, cell *tableCell, childTag CapTag, isLeaf bool) {
	t := cell.UnsafeBorrow()
	for _, e := range t {
		switch {
		case isLeaf && e.IsCapability():
			dropCapability(reg, e)
		case isLeaf && e.IsLeaf():
			dropHandlers[CapPage](reg, e.PPN())
		case !isLeaf && e.IsInterior():
			dropHandlers[childTag](reg, e.PPN())
		}
	}
}

/// kernelL1Slot is the TokenCell<optional> global root keeping the shared
/// kernel L1 table alive (spec §9: "the global slot is the canonical root
/// that keeps it live").
var kernelL1Slot = ktoken.NewCell[*L1Table](nil)

/// InstallKernelL1 populates the global kernel-L1 slot. Called once from
/// boot composition step 2; writable only through this explicit setup
/// hook, matching spec §5's "Shared resources" paragraph.
func InstallKernelL1(token *ktoken.Token, l1 L1Table) {
	*kernelL1Slot.BorrowMut(token) = &l1
}

/// KernelL1 returns the installed kernel L1 table. Panics if called before
/// InstallKernelL1 -- every user L2TableCap.New needs it.
func KernelL1(token *ktoken.Token) L1Table {
	l1 := kernelL1Slot.Borrow(token)
	if *l1 == nil {
		panic("pagetable: kernel L1 table not installed")
	}
	return **l1
}

// boundsCheck is a small shared helper: bounds-check a table index.
func boundsCheck(index int) {
	if index < 0 || index >= machine.L2Entries {
		panic("pagetable: index out of range")
	}
}
