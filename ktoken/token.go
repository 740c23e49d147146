// Package ktoken implements the single-ticket synchronization primitive
// that makes every other package's shared mutable state sound across
// multiple harts: Token, the zero-size proof of unique-writer status, and
// Cell, the TokenCell wrapper whose borrow methods require a Token.
//
// Grounded on gopher-os-gopher-os/src/gopheros/kernel/sync.Spinlock (the
// CAS-acquire/release-store shape) generalized from a binary held/free bit
// to a per-hart holder id, since the spec requires detecting reentrant
// acquisition by the current holder.
package ktoken

import (
	"runtime"
	"sync/atomic"
)

/// InvalidHart is the holder value meaning "the token is free".
const InvalidHart uint32 = ^uint32(0)

var holder atomic.Uint32

func init() {
	holder.Store(InvalidHart)
}

/// Token is a zero-size ownership marker proving the holder is the unique
/// writer of shared kernel state on its hart. At most one Token exists
/// process-wide at any instant.
type Token struct {
	_ [0]int // prevents accidental comparison short-circuiting on a bare struct{}
}

/// hartID returns the calling hart's identity by reading the per-hart
/// scratch value boot installs in the tp register. Declared without a body
/// -- implemented in the boot assembly collaborator (out of scope per the
/// spec's §1) -- the way
/// gopher-os-gopher-os/kernel/cpu/cpu_amd64.go declares ActivePDT/ID.
func hartID() uint32

/// hartIDFn is substituted in tests so Acquire/Release can run on a host
/// with no real per-hart register, mirroring cpu.cpuidFn in
/// gopher-os-gopher-os/kernel/cpu/cpu_amd64.go.
var hartIDFn = hartID

/// Acquire spins until the token is free, then claims it for the calling
/// hart and returns the zero-sized Token. Acquisition only succeeds when
/// the holder is InvalidHart -- REDESIGN FLAG (a) from the spec: the
/// acquire condition is re-derived from first principles here rather than
/// ported from any suspect source.
func Acquire() Token {
	me := hartIDFn()
	for {
		if holder.CompareAndSwap(InvalidHart, me) {
			return Token{}
		}
		if holder.Load() == me {
			// Reentrant acquisition by the current holder is a bug.
			panic("ktoken: reentrant Acquire by current holder")
		}
		procYield()
	}
}

/// Release relinquishes the token, allowing another hart to acquire it.
func (Token) Release() {
	holder.Store(InvalidHart)
}

/// Held reports whether the token is currently held by any hart, for
/// diagnostics and assertions only -- never for control flow, since that
/// would reintroduce the races the token exists to prevent.
func Held() bool {
	return holder.Load() != InvalidHart
}

// procYield gives other harts/goroutines a chance to make progress while
// spinning. Declared as a variable so tests can make spin loops
// deterministic.
var procYield = runtime.Gosched

/// Cell is a transparent interior-mutability wrapper whose Borrow/BorrowMut
/// methods require a shared or exclusive Token respectively. The token's
/// process-wide uniqueness makes those borrows sound without a per-cell
/// lock.
type Cell[T any] struct {
	value T
}

/// NewCell wraps value in a token-guarded cell.
func NewCell[T any](value T) Cell[T] {
	return Cell[T]{value: value}
}

/// Borrow returns a read-only view of the cell's contents. Requiring a
/// *Token proves the caller holds the one process-wide writer permission,
/// even though this particular access only reads.
func (c *Cell[T]) Borrow(_ *Token) *T {
	return &c.value
}

/// BorrowMut returns a mutable view of the cell's contents.
func (c *Cell[T]) BorrowMut(_ *Token) *T {
	return &c.value
}

/// UnsafeBorrow bypasses the token requirement. It is only sound when the
/// caller already has exclusive access by construction -- the one use in
/// this kernel is a capability's Destroy callback, which only ever runs
/// once the frame registry has observed the last live handle drop to zero,
/// so by definition no other borrow can be concurrently outstanding.
func (c *Cell[T]) UnsafeBorrow() *T {
	return &c.value
}
