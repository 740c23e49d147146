package boot

import (
	"rv39kernel/cap"
	"rv39kernel/frame"
	"rv39kernel/ktoken"
	"rv39kernel/machine"
	"rv39kernel/pagetable"
	"rv39kernel/thread"
)

/// Stats snapshots how many frames boot composition claimed for each
/// object kind, plus the allocator's high-water mark. Returned from
/// Bootstrap for the dispatch loop to log once at startup -- a diagnostic
/// supplement mirroring Physmem_t.Pgcount() in the teacher's mem.go
/// (SPEC_FULL.md §4.7).
type Stats struct {
	L0Tables  uint32
	L1Tables  uint32
	L2Tables  uint32
	Pages     uint32
	HighWater uint32
}

/// Bootstrap runs steps 1-4 of spec §4.7: acquires the token, builds the
/// kernel L1 table from kernelLayout, builds a user L2 table from
/// userImage, and creates the starting thread capability. It returns the
/// thread capability, the still-held token (the caller -- Run -- takes
/// ownership of it for the dispatch loop), and the accumulated stats.
func Bootstrap(reg *frame.Registry, alloc *Allocator, userImage []byte) (thread.ThreadCap, ktoken.Token, Stats) {
	token := ktoken.Acquire()

	var stats Stats

	kernelL1 := buildKernelL1(reg, alloc, &token, &stats)
	pagetable.InstallKernelL1(&token, kernelL1)

	userL2 := buildUserL2(reg, alloc, &token, userImage, &stats)

	threadIdx, ok := alloc.Next()
	if !ok {
		Panic("boot: frame allocator exhausted while creating the initial thread")
	}
	ctx := thread.Context{Pc: uint64(machine.UsermodeBaseAddr), Sp: 0}
	threadCap, ok := thread.NewThreadCap(reg, threadIdx, ctx, userL2)
	if !ok {
		Panic("boot: could not claim frame %d for the initial thread", threadIdx)
	}

	stats.HighWater = alloc.Claimed()
	return threadCap, token, stats
}

// buildKernelL1 implements spec §4.7 step 2: for each of 512 L1 indices,
// allocate an L0 table; for each of 512 L0 indices, compute the virtual
// address and, if it falls in a named kernel section, adopt the backing
// frame as an Internal page and map it with that section's permissions.
func buildKernelL1(reg *frame.Registry, alloc *Allocator, token *ktoken.Token, stats *Stats) pagetable.L1Table {
	l1Idx, ok := alloc.Next()
	if !ok {
		Panic("boot: frame allocator exhausted while creating the kernel L1 table")
	}
	l1, ok := pagetable.NewL1Table(reg, l1Idx)
	if !ok {
		Panic("boot: could not claim frame %d for the kernel L1 table", l1Idx)
	}
	stats.L1Tables++

	for l1i := 0; l1i < machine.L1Entries; l1i++ {
		l0Idx, ok := alloc.Next()
		if !ok {
			Panic("boot: frame allocator exhausted while creating a kernel L0 table")
		}
		l0, ok := pagetable.NewL0Table(reg, l0Idx)
		if !ok {
			Panic("boot: could not claim frame %d for a kernel L0 table", l0Idx)
		}
		stats.L0Tables++

		populated := false
		for l0i := 0; l0i < machine.L0Entries; l0i++ {
			vaddr := uintptr(l1i)*machine.L1Size + uintptr(l0i)*machine.L0Size + machine.KernelModeBase
			section, pageIdx, found := lookupSection(vaddr)
			if !found {
				continue
			}
			page, ok := cap.AssumeInternalPage(reg, pageIdx)
			if !ok {
				Panic("boot: frame %d for kernel section %q is not claimable as Internal", pageIdx, section.Name)
			}
			l0.MapL0KernelPage(token, l0i, page, section.Perms)
			populated = true
			stats.Pages++
		}

		if populated {
			l1.MapL0KernelTable(token, l1i, l0)
		}
		l0.Drop()
	}

	return l1
}

// buildUserL2 implements spec §4.7 step 3: split the embedded user image
// into L2-sized chunks, then L1-sized sub-chunks, then page-sized frames,
// allocating a table (or a zero-padded Normal page) for each and wiring
// the tree bottom-up.
func buildUserL2(reg *frame.Registry, alloc *Allocator, token *ktoken.Token, userImage []byte, stats *Stats) pagetable.L2Table {
	l2Idx, ok := alloc.Next()
	if !ok {
		Panic("boot: frame allocator exhausted while creating the user L2 table")
	}
	l2, ok := pagetable.NewL2Table(reg, l2Idx, token)
	if !ok {
		Panic("boot: could not claim frame %d for the user L2 table", l2Idx)
	}
	stats.L2Tables++

	for l2i := 0; l2i*machine.L2Size < len(userImage) && l2i < 256; l2i++ {
		l2Chunk := sliceChunk(userImage, l2i*machine.L2Size, machine.L2Size)

		l1Idx, ok := alloc.Next()
		if !ok {
			Panic("boot: frame allocator exhausted while creating a user L1 table")
		}
		l1, ok := pagetable.NewL1Table(reg, l1Idx)
		if !ok {
			Panic("boot: could not claim frame %d for a user L1 table", l1Idx)
		}
		stats.L1Tables++

		for l1i := 0; l1i*machine.L1Size < len(l2Chunk); l1i++ {
			l1Chunk := sliceChunk(l2Chunk, l1i*machine.L1Size, machine.L1Size)

			l0Idx, ok := alloc.Next()
			if !ok {
				Panic("boot: frame allocator exhausted while creating a user L0 table")
			}
			l0, ok := pagetable.NewL0Table(reg, l0Idx)
			if !ok {
				Panic("boot: could not claim frame %d for a user L0 table", l0Idx)
			}
			stats.L0Tables++

			for l0i := 0; l0i*machine.L0Size < len(l1Chunk); l0i++ {
				pageBytes := sliceChunk(l1Chunk, l0i*machine.L0Size, machine.L0Size)

				pageIdx, ok := alloc.Next()
				if !ok {
					Panic("boot: frame allocator exhausted while creating a user page")
				}
				page, ok := cap.NewNormalPage(reg, pageIdx, pageBytes)
				if !ok {
					Panic("boot: could not claim frame %d for a user page", pageIdx)
				}
				l0.MapL0Page(token, l0i, page, pagetable.ReadWriteExecute)
				stats.Pages++
			}

			l1.MapL0Table(token, l1i, l0)
			l0.Drop()
		}

		l2.MapL1Table(token, l2i, l1)
		l1.Drop()
	}

	return l2
}

// sliceChunk returns userImage[start:start+length], clamped to the
// slice's actual bounds; the spec's "zero-padded" trailing chunk is
// represented by returning a shorter slice, which NewNormalPage's caller
// leaves the rest of the destination frame zeroed for (cap.NewNormalPage
// copies only len(seed) bytes into an already-zeroed frame).
func sliceChunk(data []byte, start, length int) []byte {
	if start >= len(data) {
		return nil
	}
	end := start + length
	if end > len(data) {
		end = len(data)
	}
	return data[start:end]
}
