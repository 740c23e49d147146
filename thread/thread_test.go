package thread_test

import (
	"testing"

	"rv39kernel/ktoken"
	"rv39kernel/platform"
	"rv39kernel/thread"
)

func TestCallPushesAndSwapsAddressSpace(t *testing.T) {
	reg := newTestRegistry(16)
	var token ktoken.Token
	l2a := newTestL2(reg, 0, &token)
	l2b := newTestL2(reg, 1, &token)

	tc, ok := thread.NewThreadCap(reg, 2, thread.Context{Pc: 100, Sp: 200}, l2a)
	if !ok {
		t.Fatal("expected thread claim to succeed")
	}

	if !tc.Call(&token, thread.Call{Pc: 300, Sp: 400, L2Table: l2b}) {
		t.Fatal("expected call to succeed")
	}
	ctx := tc.Context(&token)
	if ctx.Pc != 300 || ctx.Sp != 400 {
		t.Fatalf("expected pc=300 sp=400, got pc=%d sp=%d", ctx.Pc, ctx.Sp)
	}

	if !tc.Ret(&token) {
		t.Fatal("expected ret to succeed")
	}
	ctx = tc.Context(&token)
	if ctx.Pc != 100 || ctx.Sp != 200 {
		t.Fatalf("expected restored pc=100 sp=200, got pc=%d sp=%d", ctx.Pc, ctx.Sp)
	}

	if tc.Ret(&token) {
		t.Fatal("expected ret from an empty call stack to fail")
	}
}

func TestCallStackDepthLimitOnThread(t *testing.T) {
	reg := newTestRegistry(16)
	var token ktoken.Token
	l2 := newTestL2(reg, 0, &token)
	tc, _ := thread.NewThreadCap(reg, 1, thread.Context{}, l2)

	for i := 0; i < 8; i++ {
		if !tc.Call(&token, thread.Call{Pc: uint64(i), L2Table: l2}) {
			t.Fatalf("expected call %d to succeed", i)
		}
	}
	if tc.Call(&token, thread.Call{Pc: 99, L2Table: l2}) {
		t.Fatal("expected the 9th call to fail")
	}
}

func TestResumeRoundTrip(t *testing.T) {
	reg := newTestRegistry(16)
	var token ktoken.Token
	l2 := newTestL2(reg, 0, &token)

	tc, ok := thread.NewThreadCap(reg, 1, thread.Context{Pc: 0x1000, Sp: 0x2000, A0: 7}, l2)
	if !ok {
		t.Fatal("expected thread claim to succeed")
	}

	origResume, origSwap, origFence := platform.ResumeUserFn, platform.SwapSatpFn, platform.FenceTLBFn
	defer func() {
		platform.ResumeUserFn, platform.SwapSatpFn, platform.FenceTLBFn = origResume, origSwap, origFence
	}()
	platform.SwapSatpFn = func(v uint64) uint64 { return 0 }
	platform.FenceTLBFn = func() {}
	platform.ResumeUserFn = func(ctx *platform.Context32) (uint64, uint64) {
		const a0Index = 24
		if ctx[1] != 0x1000 {
			t.Fatalf("expected pc 0x1000 entering user mode, got %#x", ctx[1])
		}
		if ctx[2] != 0x2000 {
			t.Fatalf("expected sp 0x2000 entering user mode, got %#x", ctx[2])
		}
		ctx[a0Index] = 9 // V' per spec property 5
		return 8, 0
	}

	newToken, scause, _, ok := tc.Resume(token, 0)
	if !ok {
		t.Fatal("expected resume to succeed")
	}
	token = newToken
	if scause != 8 {
		t.Fatalf("expected scause 8, got %d", scause)
	}

	ctx := tc.Context(&token)
	if ctx.Pc != 0x1000 {
		t.Fatalf("expected pc unchanged by resume at 0x1000, got %#x", ctx.Pc)
	}
	if ctx.Sp != 0x2000 {
		t.Fatalf("expected sp unchanged at 0x2000, got %#x", ctx.Sp)
	}
	if ctx.A0 != 9 {
		t.Fatalf("expected a0 updated to 9, got %d", ctx.A0)
	}
}

func TestResumeFailsWhileAlreadyRunning(t *testing.T) {
	reg := newTestRegistry(16)
	var token ktoken.Token
	l2 := newTestL2(reg, 0, &token)
	tc, _ := thread.NewThreadCap(reg, 1, thread.Context{}, l2)

	origResume, origSwap, origFence := platform.ResumeUserFn, platform.SwapSatpFn, platform.FenceTLBFn
	defer func() {
		platform.ResumeUserFn, platform.SwapSatpFn, platform.FenceTLBFn = origResume, origSwap, origFence
	}()
	platform.SwapSatpFn = func(v uint64) uint64 { return 0 }
	platform.FenceTLBFn = func() {}

	nestedOK := true
	platform.ResumeUserFn = func(ctx *platform.Context32) (uint64, uint64) {
		// the thread is marked running for the duration of this callback,
		// so a nested resume attempt against the same capability must fail.
		_, _, _, ok := tc.Resume(ktoken.Token{}, 1)
		nestedOK = ok
		return 8, 0
	}

	if _, _, _, ok := tc.Resume(token, 0); !ok {
		t.Fatal("expected the outer resume to succeed")
	}
	if nestedOK {
		t.Fatal("expected the nested resume to fail while the thread was running")
	}
}

func TestCallExceptionUsesInstalledHandler(t *testing.T) {
	reg := newTestRegistry(16)
	var token ktoken.Token
	l2a := newTestL2(reg, 0, &token)
	l2b := newTestL2(reg, 1, &token)

	tc, _ := thread.NewThreadCap(reg, 2, thread.Context{Pc: 10, Sp: 20}, l2a)

	if !tc.CallException(&token) {
		t.Fatal("expected CallException to be a no-op success with no handler installed")
	}
	ctx := tc.Context(&token)
	if ctx.Pc != 10 {
		t.Fatal("expected no-op CallException to leave context untouched")
	}

	excCap, ok := thread.NewCallCap(reg, 3, 500, 600, l2b)
	if !ok {
		t.Fatal("expected exception call claim to succeed")
	}
	tc.SetExceptionCall(&token, excCap)

	if !tc.CallException(&token) {
		t.Fatal("expected CallException to succeed once a handler is installed")
	}
	ctx = tc.Context(&token)
	if ctx.Pc != 500 || ctx.Sp != 600 {
		t.Fatalf("expected pc=500 sp=600, got pc=%d sp=%d", ctx.Pc, ctx.Sp)
	}
}
