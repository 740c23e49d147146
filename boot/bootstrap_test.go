package boot

import (
	"testing"
	"unsafe"

	"rv39kernel/frame"
	"rv39kernel/ktoken"
	"rv39kernel/machine"
	"rv39kernel/pagetable"
)

func newBootstrapRegistry(frameCount frame.Index) *frame.Registry {
	reg := &frame.Registry{}
	backing := make([]byte, uintptr(frameCount)*machine.PageSize)
	reg.Init(uintptr(unsafe.Pointer(unsafe.SliceData(backing))))
	for i := frame.Index(0); i < frameCount; i++ {
		reg.MarkInternal(i)
	}
	return reg
}

func TestBootstrapBuildsThreadWithEmptyUserImage(t *testing.T) {
	defer SetKernelLayout(nil)
	SetKernelLayout(nil) // no kernel sections: every kernel L0 table stays empty and unmapped.

	const topFrame = frame.Index(600)
	reg := newBootstrapRegistry(topFrame)
	alloc := NewAllocator(0, topFrame)

	threadCap, token, stats := Bootstrap(reg, alloc, nil)
	defer threadCap.Drop()

	if stats.L1Tables != 1 {
		t.Fatalf("expected 1 kernel L1 table (no user image), got %d", stats.L1Tables)
	}
	if stats.L0Tables != machine.L1Entries {
		t.Fatalf("expected %d kernel L0 tables attempted, got %d", machine.L1Entries, stats.L0Tables)
	}
	if stats.L2Tables != 1 {
		t.Fatalf("expected 1 user L2 table even for an empty image, got %d", stats.L2Tables)
	}
	if stats.Pages != 0 {
		t.Fatalf("expected 0 pages for an empty image, got %d", stats.Pages)
	}
	if stats.HighWater != alloc.Claimed() {
		t.Fatalf("expected HighWater to match the allocator's claimed count, got %d vs %d", stats.HighWater, alloc.Claimed())
	}

	ctx := threadCap.Context(&token)
	if ctx.Pc != uint64(machine.UsermodeBaseAddr) {
		t.Fatalf("expected the initial pc at the usermode base, got %#x", ctx.Pc)
	}
	if ctx.Sp != 0 {
		t.Fatalf("expected the initial sp to be 0, got %#x", ctx.Sp)
	}
}

func TestBuildUserL2AdoptsImagePagesAsNormalFrames(t *testing.T) {
	reg := &frame.Registry{}
	backing := make([]byte, 32*machine.PageSize)
	reg.Init(uintptr(unsafe.Pointer(unsafe.SliceData(backing))))

	// buildUserL2, called alone against NewAllocator(0, 10), claims frames
	// descending 9,8,7 for the L2/L1/L0 tables and 6,5 for the two pages a
	// 6000-byte image spans.
	for _, idx := range []frame.Index{7, 8, 9, 20} {
		reg.MarkInternal(idx)
	}
	for _, idx := range []frame.Index{5, 6} {
		reg.MarkNormal(idx)
	}

	var token ktoken.Token
	kernelL1, ok := pagetable.NewL1Table(reg, 20)
	if !ok {
		t.Fatal("expected the stand-in kernel L1 claim to succeed")
	}
	pagetable.InstallKernelL1(&token, kernelL1)

	alloc := NewAllocator(0, 10)
	userImage := make([]byte, 6000)
	for i := range userImage {
		userImage[i] = byte(i)
	}

	var stats Stats
	l2 := buildUserL2(reg, alloc, &token, userImage, &stats)
	defer l2.Drop()

	if stats.L2Tables != 1 || stats.L1Tables != 1 || stats.L0Tables != 1 {
		t.Fatalf("expected exactly one table at each level, got %+v", stats)
	}
	if stats.Pages != 2 {
		t.Fatalf("expected 2 pages for a 6000-byte image, got %d", stats.Pages)
	}
	if reg.Kind(5) != frame.Normal || reg.Kind(6) != frame.Normal {
		t.Fatal("expected the page frames to remain classified Normal")
	}
	if reg.Refcnt(5) == 0 || reg.Refcnt(6) == 0 {
		t.Fatal("expected both page frames to be claimed (nonzero refcount)")
	}
}
