// Command kernel is the entry point the boot-assembly collaborator jumps
// to once it has installed a stack and a trap vector (spec §6's entry
// contract: translation disabled, interrupts off, hart id in a0, FDT
// pointer in a1).
//
// Grounded on gopher-os-gopher-os/kernel/kmain/kmain.go's Kmain: the only
// Go symbol the assembly rt0 calls, taking boot-provided addresses as
// plain arguments and never expected to return.
package main

import (
	"rv39kernel/boot"
	"rv39kernel/frame"
	"rv39kernel/kfmt"
	"rv39kernel/machine"
)

// mappingBase is the virtual address at which the frame registry's
// identity map of all physical memory begins, installed by the boot
// assembly collaborator before Kmain runs.
const mappingBase uintptr = machine.KernelModeBase

// kernelImageFrames and totalFrames describe this build's memory layout;
// a real boot path derives them from the FDT the firmware hands to hart
// 0 (out of scope per spec §1). Fixed here for a single build target,
// matching the spec's "no dynamic kernel heap, no address-space ID
// management" non-goals -- there is no runtime memory-size detection to
// do in the core this repository implements.
const (
	kernelImageFrames frame.Index = 4096
	totalFrames       frame.Index = machine.FrameCount
)

// userImage is the embedded user-mode payload (spec §1's sole
// out-of-scope data artifact). A real build embeds it with go:embed from
// a linked-in binary; left nil here since no concrete user program ships
// with this repository.
var userImage []byte

/// Kmain is the only Go symbol the boot assembly calls. hartID and
/// fdtAddr are the two SBI entry arguments; fdtAddr is unused by the
/// core (device-tree parsing is a boot-assembly concern per §1) and kept
/// only to document the entry contract.
//
//go:noinline
func Kmain(hartID uint32, fdtAddr uintptr) {
	_ = fdtAddr

	frame.Global.Init(mappingBase)
	boot.ClassifyFrames(frame.Global, kernelImageFrames, totalFrames)
	boot.SetKernelLayout(kernelLayout())

	alloc := boot.NewAllocator(kernelImageFrames, totalFrames)
	threadCap, token, stats := boot.Bootstrap(frame.Global, alloc, userImage)

	kfmt.Logf("boot: hart=%d l0=%d l1=%d l2=%d pages=%d claimed=%d\n",
		hartID, stats.L0Tables, stats.L1Tables, stats.L2Tables, stats.Pages, stats.HighWater)

	boot.Run(threadCap, token, int(hartID))

	boot.Panic("Kmain returned")
}

// kernelLayout names the kernel image's sections. It returns no sections:
// the section bounds are link-time values (the linker script and boot
// assembly are the collaborator that actually knows these, per spec §1),
// and none are filled in here, so no kernel L0 page is mapped.
func kernelLayout() []boot.Section {
	return nil
}

func main() {
	// Unreachable in the freestanding build: the boot assembly calls
	// Kmain directly. Present so this package builds as a normal Go
	// command for hosted tooling (go vet, staticcheck) against the rest
	// of the module.
	Kmain(0, 0)
}
