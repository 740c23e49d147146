package pagetable_test

import (
	"testing"

	"rv39kernel/ktoken"
	"rv39kernel/pagetable"
)

func TestL1MapL0TableSharesOwnership(t *testing.T) {
	reg := newTestRegistry(16)
	var token ktoken.Token

	l1, ok := pagetable.NewL1Table(reg, 0)
	if !ok {
		t.Fatal("expected L1 claim to succeed")
	}
	l0, ok := pagetable.NewL0Table(reg, 1)
	if !ok {
		t.Fatal("expected L0 claim to succeed")
	}

	l1.MapL0Table(&token, 7, l0)
	e := l1.EntryAt(&token, 7)
	if !e.IsInterior() {
		t.Fatalf("expected an interior entry, got %+v", e)
	}
	if e.PPN() != l0.Index() {
		t.Fatalf("expected PPN %d, got %d", l0.Index(), e.PPN())
	}
	if reg.Refcnt(l0.Index()) != 3 {
		t.Fatalf("expected refcount 3 (construction + local handle + table's clone), got %d", reg.Refcnt(l0.Index()))
	}

	l0.Drop()
	if reg.Refcnt(l0.Index()) != 2 {
		t.Fatalf("expected refcount 2 after dropping the local handle, got %d", reg.Refcnt(l0.Index()))
	}

	l1.Drop()
	if reg.Refcnt(l0.Index()) != 0 {
		t.Fatalf("expected L1's drop to release its clone of the L0 table, got refcount %d", reg.Refcnt(l0.Index()))
	}
}

func TestL1KernelTableSetsGlobalBit(t *testing.T) {
	reg := newTestRegistry(16)
	var token ktoken.Token

	l1, _ := pagetable.NewL1Table(reg, 0)
	l0, _ := pagetable.NewL0Table(reg, 1)
	l1.MapL0KernelTable(&token, 2, l0)
	if !l1.EntryAt(&token, 2).Global() {
		t.Fatal("expected global bit set on a kernel interior entry")
	}
}
