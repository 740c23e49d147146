// Package machine holds the compile-time constants describing the target
// platform: frame size, frame count, and the virtual-address layout each
// page-table level covers. Nothing here is runtime configuration -- the
// kernel carries no dynamic config surface (see spec Non-goals).
package machine

/// PageShift is the base-2 exponent of the frame size.
const PageShift uint = 12

/// PageSize is the size in bytes of a single physical frame (4 KiB).
const PageSize = 1 << PageShift

/// PageOffsetMask masks the in-page offset bits of a virtual or physical
/// address.
const PageOffsetMask uintptr = PageSize - 1

/// FrameCount bounds the number of physical frames the registry tracks.
/// Chosen to cover a modest QEMU virt machine (2 GiB of RAM).
const FrameCount = 1 << 19

/// L0Entries, L1Entries, L2Entries are the fixed fan-out of each Sv39 table
/// level: 512 eight-byte entries fill exactly one 4 KiB frame.
const (
	L0Entries = 512
	L1Entries = 512
	L2Entries = 512
)

/// L0Size is the span of virtual address covered by a single L0 leaf entry.
const L0Size = PageSize

/// L1Size is the span of virtual address covered by a single L1 entry (one
/// full L0 table): 2 MiB.
const L1Size = L0Size * L0Entries

/// L2Size is the span of virtual address covered by a single L2 entry (one
/// full L1 table): 1 GiB.
const L2Size = L1Size * L1Entries

/// KernelModeBase is the virtual address at which the kernel's high-half
/// mapping begins.
const KernelModeBase uintptr = 0xffffffc000000000

/// UsermodeBaseAddr is the virtual address at which the embedded user
/// payload's first byte is mapped.
const UsermodeBaseAddr uintptr = 0x0000000000010000

/// EcallCause is the scause value reported for an environment call from
/// user mode.
const EcallCause uint64 = 8

/// SyscallShutdown and SyscallConsoleWrite are the two hardcoded syscalls
/// the dispatch loop understands; anything else is logged as a diagnostic.
const (
	SyscallShutdown     uint64 = 0
	SyscallConsoleWrite uint64 = 1
)
