package thread_test

import (
	"unsafe"

	"rv39kernel/frame"
	"rv39kernel/ktoken"
	"rv39kernel/machine"
	"rv39kernel/pagetable"
)

func newTestRegistry(frameCount frame.Index) *frame.Registry {
	reg := &frame.Registry{}
	backing := make([]byte, uintptr(frameCount)*machine.PageSize)
	reg.Init(uintptr(unsafe.Pointer(unsafe.SliceData(backing))))
	for i := frame.Index(0); i < frameCount; i++ {
		reg.MarkInternal(i)
	}
	return reg
}

func newTestL2(reg *frame.Registry, idx frame.Index, token *ktoken.Token) pagetable.L2Table {
	l2, ok := pagetable.NewBootL2Table(reg, idx, token)
	if !ok {
		panic("test: could not claim boot L2 table")
	}
	return l2
}
