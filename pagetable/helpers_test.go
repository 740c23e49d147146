package pagetable_test

import (
	"unsafe"

	"rv39kernel/frame"
	"rv39kernel/machine"
)

// newTestRegistry builds a registry backed by a plain Go heap allocation
// standing in for the identity-mapped physical range, with frames
// [0, frameCount) marked Internal -- every page-table level in this
// package is an Internal-kind frame.
func newTestRegistry(frameCount frame.Index) *frame.Registry {
	reg := &frame.Registry{}
	backing := make([]byte, uintptr(frameCount)*machine.PageSize)
	reg.Init(uintptr(unsafe.Pointer(unsafe.SliceData(backing))))
	for i := frame.Index(0); i < frameCount; i++ {
		reg.MarkInternal(i)
	}
	return reg
}
