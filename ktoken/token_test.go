package ktoken

import "testing"

func withHart(id uint32, fn func()) {
	prev := hartIDFn
	hartIDFn = func() uint32 { return id }
	defer func() { hartIDFn = prev }()
	fn()
}

func TestAcquireReleaseExclusivity(t *testing.T) {
	if Held() {
		t.Fatal("token held before any Acquire")
	}
	var tok Token
	withHart(1, func() {
		tok = Acquire()
	})
	if !Held() {
		t.Fatal("expected token to be held after Acquire")
	}
	tok.Release()
	if Held() {
		t.Fatal("expected token to be free after Release")
	}
}

func TestReentrantAcquirePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected reentrant Acquire to panic")
		}
	}()
	withHart(2, func() {
		tok := Acquire()
		defer tok.Release()
		Acquire() // same hart: must panic, not deadlock
	})
}

func TestCellBorrowRequiresToken(t *testing.T) {
	cell := NewCell(7)
	withHart(3, func() {
		tok := Acquire()
		defer tok.Release()
		if v := *cell.Borrow(&tok); v != 7 {
			t.Fatalf("expected 7, got %d", v)
		}
		*cell.BorrowMut(&tok) = 9
		if v := *cell.Borrow(&tok); v != 9 {
			t.Fatalf("expected 9, got %d", v)
		}
	})
}
