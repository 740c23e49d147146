package pagetable_test

import (
	"testing"

	"rv39kernel/frame"
	"rv39kernel/ktoken"
	"rv39kernel/pagetable"
)

// testPageCap is a minimal stand-in for a cap.NormalPage/InternalPage: it
// satisfies pagetable.Capability's ownership-transfer contract without
// pulling in the cap package, which would need its own live frame claim
// this test has no use for.
type testPageCap struct{ idx frame.Index }

func (p testPageCap) IntoRaw() (pagetable.CapTag, frame.Index) { return pagetable.CapPage, p.idx }

func TestL0MapPageRoundTrip(t *testing.T) {
	reg := newTestRegistry(16)
	var token ktoken.Token

	l0, ok := pagetable.NewL0Table(reg, 0)
	if !ok {
		t.Fatal("expected L0 table claim to succeed")
	}

	l0.MapL0Page(&token, 5, testPageCap{idx: 9}, pagetable.ReadWrite)
	e := l0.EntryAt(&token, 5)
	if !e.IsLeaf() || e.IsInterior() || e.IsCapability() {
		t.Fatalf("expected a leaf entry, got %+v", e)
	}
	if e.PPN() != 9 {
		t.Fatalf("expected PPN 9, got %d", e.PPN())
	}
	if !e.User() {
		t.Fatal("expected user bit set for MapL0Page")
	}
	if e.Perms() != pagetable.ReadWrite {
		t.Fatalf("expected ReadWrite perms, got %v", e.Perms())
	}
}

func TestL0MapKernelPageClearsUserBit(t *testing.T) {
	reg := newTestRegistry(16)
	var token ktoken.Token

	l0, _ := pagetable.NewL0Table(reg, 0)
	l0.MapL0KernelPage(&token, 3, testPageCap{idx: 2}, pagetable.ReadExecute)
	e := l0.EntryAt(&token, 3)
	if e.User() {
		t.Fatal("expected user bit clear for a kernel page")
	}
	if !e.Global() {
		t.Fatal("expected global bit set for a kernel page")
	}
}

func TestL0PanicsOnOutOfRangeIndex(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-range index")
		}
	}()
	reg := newTestRegistry(16)
	var token ktoken.Token
	l0, _ := pagetable.NewL0Table(reg, 0)
	l0.MapL0Page(&token, 512, testPageCap{idx: 0}, pagetable.ReadOnly)
}
