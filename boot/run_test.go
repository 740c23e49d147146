package boot_test

import (
	"strings"
	"testing"
	"unsafe"

	"rv39kernel/boot"
	"rv39kernel/frame"
	"rv39kernel/ktoken"
	"rv39kernel/machine"
	"rv39kernel/pagetable"
	"rv39kernel/platform"
	"rv39kernel/sbi"
	"rv39kernel/thread"
)

func newRunRegistry(frameCount frame.Index) *frame.Registry {
	reg := &frame.Registry{}
	backing := make([]byte, uintptr(frameCount)*machine.PageSize)
	reg.Init(uintptr(unsafe.Pointer(unsafe.SliceData(backing))))
	for i := frame.Index(0); i < frameCount; i++ {
		reg.MarkInternal(i)
	}
	return reg
}

// scriptTraps drives a sequence of simulated traps through resumeUser: each
// entry sets a0/a1 on the way out and reports the scause/stval the "user
// program" trapped with.
func scriptTraps(t *testing.T, traps []func(ctx *platform.Context32) (uint64, uint64)) func() {
	t.Helper()
	origResume, origSwap, origFence := platform.ResumeUserFn, platform.SwapSatpFn, platform.FenceTLBFn
	platform.SwapSatpFn = func(v uint64) uint64 { return 0 }
	platform.FenceTLBFn = func() {}
	i := 0
	platform.ResumeUserFn = func(ctx *platform.Context32) (uint64, uint64) {
		if i >= len(traps) {
			t.Fatal("resumeUser called more times than scripted")
		}
		scause, stval := traps[i](ctx)
		i++
		return scause, stval
	}
	return func() {
		platform.ResumeUserFn, platform.SwapSatpFn, platform.FenceTLBFn = origResume, origSwap, origFence
	}
}

func TestRunDispatchesConsoleWriteThenShutdown(t *testing.T) {
	reg := newRunRegistry(8)
	var token ktoken.Token
	l2, ok := pagetable.NewBootL2Table(reg, 0, &token)
	if !ok {
		t.Fatal("expected boot L2 claim to succeed")
	}
	tc, ok := thread.NewThreadCap(reg, 1, thread.Context{Pc: 0x4000}, l2)
	if !ok {
		t.Fatal("expected thread claim to succeed")
	}

	const a0Index = 24
	const a1Index = 25

	restore := scriptTraps(t, []func(ctx *platform.Context32) (uint64, uint64){
		func(ctx *platform.Context32) (uint64, uint64) {
			// SyscallConsoleWrite with "hi" packed into the high two bytes.
			ctx[a0Index] = machine.SyscallConsoleWrite
			ctx[a1Index] = 0x6869000000000000
			return machine.EcallCause, 0
		},
		func(ctx *platform.Context32) (uint64, uint64) {
			ctx[a0Index] = machine.SyscallShutdown
			return machine.EcallCause, 0
		},
	})
	defer restore()

	var written strings.Builder
	origPutChar := sbi.ConsolePutCharFn
	sbi.ConsolePutCharFn = func(b byte) { written.WriteByte(b) }
	defer func() { sbi.ConsolePutCharFn = origPutChar }()

	shutdownCalls := 0
	origShutdown := sbi.ShutdownFn
	sbi.ShutdownFn = func() bool { shutdownCalls++; return true }
	defer func() { sbi.ShutdownFn = origShutdown }()

	boot.Run(tc, token, 0)

	if shutdownCalls != 1 {
		t.Fatalf("expected exactly one shutdown call, got %d", shutdownCalls)
	}
	got := written.String()
	if !strings.HasPrefix(got, "hi") {
		t.Fatalf("expected console output to start with the written bytes, got %q", got)
	}
}
