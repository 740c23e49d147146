package boot

import (
	"rv39kernel/frame"
	"rv39kernel/machine"
	"rv39kernel/pagetable"
)

/// Section names one contiguous, page-aligned region of the kernel image
/// mapped at a fixed virtual offset with fixed permissions: entry, text,
/// boot, static, thread_image, or const, per spec §4.7 step 2. Base and
/// FrameBase are supplied by the boot-assembly/linker-script collaborator
/// (out of scope per §1) through SetKernelLayout; this package only
/// consumes them.
type Section struct {
	Name      string
	Base      uintptr
	Pages     int
	FrameBase frame.Index
	Perms     pagetable.Perms
}

/// contains reports whether vaddr falls within this section and, if so,
/// the backing physical frame.
func (s Section) contains(vaddr uintptr) (frame.Index, bool) {
	if vaddr < s.Base {
		return 0, false
	}
	off := (vaddr - s.Base) / machine.PageSize
	if off >= uintptr(s.Pages) {
		return 0, false
	}
	return s.FrameBase + frame.Index(off), true
}

/// kernelLayout is populated once via SetKernelLayout before Bootstrap
/// runs.
var kernelLayout []Section

/// SetKernelLayout installs the named kernel image sections the linker
/// script and boot assembly collaborator describe. Must be called before
/// Bootstrap.
func SetKernelLayout(sections []Section) {
	kernelLayout = sections
}

/// lookupSection returns the section and backing frame covering vaddr, if
/// any.
func lookupSection(vaddr uintptr) (Section, frame.Index, bool) {
	for _, s := range kernelLayout {
		if idx, ok := s.contains(vaddr); ok {
			return s, idx, true
		}
	}
	return Section{}, 0, false
}

/// ClassifyFrames marks the registry's frame kinds from platform
/// knowledge: [0, kernelFrames) is Internal (the kernel image and every
/// frame the bump allocator will hand out for kernel-owned objects),
/// [kernelFrames, totalFrames) is Normal (free RAM available to user
/// pages). Parsing the firmware-provided device tree to derive these
/// bounds precisely is the boot-assembly collaborator's job (out of scope
/// per §1); this entry point takes the bounds as already-resolved
/// arguments.
func ClassifyFrames(reg *frame.Registry, kernelFrames, totalFrames frame.Index) {
	for i := frame.Index(0); i < kernelFrames; i++ {
		reg.MarkInternal(i)
	}
	for i := kernelFrames; i < totalFrames; i++ {
		reg.MarkNormal(i)
	}
}
