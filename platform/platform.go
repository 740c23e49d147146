// Package platform specifies, but does not implement, the three hart
// transition primitives the spec treats as an out-of-scope collaborator
// (§4.6): swapping the active address space, resuming a parked thread into
// user mode, and the supervisor trap handler's fatal path. Each is declared
// without a body -- implemented in the boot assembly outside this repo's Go
// build, per §1 -- exactly the way
// gopher-os-gopher-os/kernel/cpu/cpu_amd64.go declares SwitchPDT,
// FlushTLBEntry, and ActivePDT, and gate_amd64.go declares
// dispatchInterrupt.
//
// Every primitive is mirrored by a package-level *Fn variable so tests can
// substitute a host-runnable stand-in, the same seam
// gopher-os-gopher-os/kernel/mem/vmm/pdt.go uses for activePDTFn/switchPDTFn.
package platform

/// Sv39Mode is the satp MODE field value selecting three-level Sv39
/// translation.
const Sv39Mode uint64 = 8

/// ModeShift is the bit offset of satp's MODE field.
const ModeShift = 60

/// MakeSatp packs a root page-table frame number into a satp value
/// selecting Sv39 mode.
func MakeSatp(rootFrame uint64) uint64 {
	return Sv39Mode<<ModeShift | rootFrame
}

/// SatpFrame extracts the root page-table frame number from a satp value.
func SatpFrame(satp uint64) uint64 {
	return satp &^ (uint64(0xf) << ModeShift)
}

/// SatpActive reports whether satp names an active Sv39 translation (as
/// opposed to the zero value meaning "nothing installed yet").
func SatpActive(satp uint64) bool {
	return satp>>ModeShift == Sv39Mode
}

/// swapSatp atomically writes the supervisor address-translation register
/// and returns its previous value. Implemented in assembly: `csrrw` on
/// satp, no TLB fence (callers that need one call FenceTLBFn separately).
func swapSatp(value uint64) uint64

/// SwapSatpFn is substituted in tests.
var SwapSatpFn = swapSatp

/// fenceTLB flushes the local hart's entire TLB (`sfence.vma`, no operands).
/// Remote-hart shootdown is a stated TODO per spec §5 and is not
/// implemented here.
func fenceTLB()

/// FenceTLBFn is substituted in tests.
var FenceTLBFn = fenceTLB

/// Context32 is the raw 32-slot register block passed to resumeUser,
/// matching thread.Context's memory layout exactly (platform cannot import
/// thread without cycling back through pagetable -> thread -> platform, so
/// it operates on the layout via an unsafe pointer rather than the named
/// type; thread.Context documents the ABI both packages share).
type Context32 [32]uint64

/// resumeUser restores all 32 user registers from ctx, jumps to user mode
/// at ctx's saved pc, and blocks until the next trap. On trap it saves the
/// full user register file back into ctx, restores the kernel stack,
/// redirects stvec back to the normal supervisor trap vector, and returns
/// the trap's scause/stval.
func resumeUser(ctx *Context32) (scause, stval uint64)

/// ResumeUserFn is substituted in tests.
var ResumeUserFn = resumeUser
