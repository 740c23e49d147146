// Package pagetable implements the Sv39 page-table entry encoding and the
// L0/L1/L2 table capabilities that compose into a user address space.
//
// Grounded on Oichkatzelesfrettschen-biscuit/biscuit/src/mem/dmap.go's PTE
// bit constants (PTE_P/PTE_W/PTE_U/PTE_G/PTE_PS/PTE_ADDR) and
// biscuit/src/vm/as.go's Page_insert/Page_remove (the present/replace
// bookkeeping around a single PTE write), generalized from x86-64's single
// writable bit to Sv39's independent R/W/X leaf bits.
package pagetable

import "rv39kernel/frame"

/// Entry is a single 64-bit Sv39 page-table entry. It is either invalid,
/// interior (points at the next table level), leaf (maps a page with
/// permissions), or -- only at L0 -- a non-present capability entry
/// carrying a tagged frame index.
type Entry uint64

const (
	bitValid    Entry = 1 << 0
	bitRead     Entry = 1 << 1
	bitWrite    Entry = 1 << 2
	bitExec     Entry = 1 << 3
	bitUser     Entry = 1 << 4
	bitGlobal   Entry = 1 << 5
	bitAccessed Entry = 1 << 6
	bitDirty    Entry = 1 << 7

	/// bitCapTag occupies the same position as bitRead, but is only ever
	/// interpreted when bitValid is clear -- the MMU never inspects an
	/// invalid entry's higher bits, so the two interpretations do not
	/// collide.
	bitCapTag Entry = 1 << 1

	capKindShift = 2
	capKindMask  = Entry(0xff) << capKindShift

	ppnShift = 10
)

/// invalidEntry is the zero value: not present, not a capability.
func invalidEntry() Entry { return 0 }

/// interiorEntry builds a non-leaf entry pointing at the next-level table
/// resident in frame target. global sets the G bit for kernel interior
/// entries shared across every address space (see L1Table.MapL0KernelTable).
func interiorEntry(target frame.Index, global bool) Entry {
	e := bitValid | Entry(target)<<ppnShift
	if global {
		e |= bitGlobal
	}
	return e
}

/// leafEntry builds a present, resolving entry mapping the 4 KiB frame
/// target with perms. target must already be a frame index (a
/// machine.PageSize-granular physical address divided by PageSize) -- for
/// an L0 leaf that is the page's own index; for a huge-page leaf at a
/// higher level, the caller must first convert the huge-page index into
/// the equivalent frame index (see l2HugeLeafEntry), since Sv39 writes the
/// same 44-bit PPN field at bits 10-53 regardless of level.
func leafEntry(target frame.Index, perms Perms, user, global bool) Entry {
	e := bitValid | Entry(target)<<ppnShift | perms.bits() | bitAccessed
	if perms.bits()&bitWrite != 0 {
		e |= bitDirty
	}
	if user {
		e |= bitUser
	}
	if global {
		e |= bitGlobal
	}
	return e
}

/// l2HugeFrameShift is the additional left shift an L2 (1 GiB) huge-page
/// leaf's frame number needs beyond a plain frame index: PPN[2] starts at
/// bit 28 of the PTE, 18 bits above the PPN field's own base at bit 10
/// (machine.L2Size/machine.PageSize == 1<<18 four-KiB frames per 1 GiB
/// huge page), so a huge-page index must be scaled up to the 4 KiB frame
/// index it names before leafEntry's uniform ppnShift applies.
const l2HugeFrameShift = 18

/// l2HugeLeafEntry builds an L2 1 GiB huge-page leaf entry for huge-page
/// index i (the huge page covering physical address i*machine.L2Size).
/// Passing i straight to leafEntry, as a bare frame index, would place the
/// frame number at PPN[0] instead of PPN[2] and alias every 1 GiB window
/// into the first few KiB of physical memory -- the bug design note (b)
/// originally called out without fixing.
func l2HugeLeafEntry(i int, perms Perms, user, global bool) Entry {
	return leafEntry(frame.Index(i)<<l2HugeFrameShift, perms, user, global)
}

/// capabilityEntry builds a non-present L0 entry carrying a capability's
/// tag and backing frame index, per the bit layout in spec §6: bit 0 clear,
/// bit 1 set, bits 2-9 the tag, bits 10+ the frame index.
func capabilityEntry(tag CapTag, idx frame.Index) Entry {
	return bitCapTag | (Entry(tag)<<capKindShift)&capKindMask | Entry(idx)<<ppnShift
}

/// IsValid reports whether this entry is present to the MMU (interior or
/// leaf).
func (e Entry) IsValid() bool { return e&bitValid != 0 }

/// IsInterior reports whether this entry points at a next-level table.
func (e Entry) IsInterior() bool {
	return e.IsValid() && e&(bitRead|bitWrite|bitExec) == 0
}

/// IsLeaf reports whether this entry resolves directly to a physical page.
func (e Entry) IsLeaf() bool {
	return e.IsValid() && e&(bitRead|bitWrite|bitExec) != 0
}

/// IsCapability reports whether this is a non-present capability entry.
func (e Entry) IsCapability() bool {
	return !e.IsValid() && e&bitCapTag != 0
}

/// PPN returns the physical frame number this entry names, valid for
/// interior entries, leaf entries, and capability entries alike.
func (e Entry) PPN() frame.Index {
	return frame.Index(e >> ppnShift)
}

/// CapTagValue returns the capability tag of a capability entry. Only
/// meaningful when IsCapability is true.
func (e Entry) CapTagValue() CapTag {
	return CapTag((e & capKindMask) >> capKindShift)
}

/// Perms returns the leaf permission combination of a leaf entry. Only
/// meaningful when IsLeaf is true.
func (e Entry) Perms() Perms {
	return permsFromBits(e & (bitRead | bitWrite | bitExec))
}

/// Global reports whether the global bit is set.
func (e Entry) Global() bool { return e&bitGlobal != 0 }

/// User reports whether the user-accessible bit is set.
func (e Entry) User() bool { return e&bitUser != 0 }
