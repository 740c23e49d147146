// Package thread implements the thread and call capabilities: the
// per-thread register context, bound address space, bounded call stack,
// exception-call slot, and the resume/trap cycle that crosses the
// supervisor/user privilege boundary.
//
// Grounded on Oichkatzelesfrettschen-biscuit/biscuit/src/mem/dmap.go and
// vm/as.go for the Arc-of-token-guarded-struct shape table levels already
// use here, and on gopher-os-gopher-os/kernel/gate/gate_amd64.go's
// Registers struct for the named-field, ABI-frozen context layout (the
// teacher's own thread/process model lives in a part of biscuit this spec
// doesn't cover, so the context and call-stack shapes are grounded on the
// closest structural analogue in the pack instead: a fixed register-save
// area with a frozen field order).
package thread

import (
	"unsafe"

	"rv39kernel/pagetable"
)

/// Context holds the 32 general-purpose register slots a parked thread's
/// execution state consists of, in the fixed order the assembly save/
/// restore stubs expect: ra, pc, sp, gp, tp, t0-t6, s0-s11, a0-a7 (5 + 7 +
/// 12 + 8 = 32). This is ABI with platform.Context32 (the untyped view
/// resumeUser operates on); reordering any field here breaks that
/// assembly contract.
type Context struct {
	Ra uint64
	Pc uint64
	Sp uint64
	Gp uint64
	Tp uint64

	T0, T1, T2, T3, T4, T5, T6 uint64

	S0, S1, S2, S3, S4, S5, S6, S7, S8, S9, S10, S11 uint64

	A0, A1, A2, A3, A4, A5, A6, A7 uint64
}

/// contextSlots is the number of uint64 register slots in Context.
const contextSlots = 32

// asWords reinterprets ctx as the flat word array platform.resumeUser
// operates on. Field order above must match exactly; this is the single
// place that assumption is exercised.
func (ctx *Context) asWords() *[contextSlots]uint64 {
	return (*[contextSlots]uint64)(unsafe.Pointer(ctx))
}

/// Call is a parked resumption record: the program counter and stack
/// pointer to resume at, and the address space to resume them in.
type Call struct {
	Pc      uint64
	Sp      uint64
	L2Table pagetable.L2Table
}

/// maxCallDepth bounds CallStack per spec §4.4 ("bounded stack of Call,
/// depth <= 8").
const maxCallDepth = 8

/// CallStack is a fixed-capacity stack of Call records with an explicit
/// depth counter. Entries at or beyond depth are conceptually
/// uninitialized and must never be read; Push/Pop are the only access
/// paths.
type CallStack struct {
	entries [maxCallDepth]Call
	depth   int
}

/// Push appends c, failing (returning false, leaving the stack unchanged)
/// if depth is already at maxCallDepth.
func (s *CallStack) Push(c Call) bool {
	if s.depth >= maxCallDepth {
		return false
	}
	s.entries[s.depth] = c
	s.depth++
	return true
}

/// Pop removes and returns the top entry, failing if the stack is empty.
func (s *CallStack) Pop() (Call, bool) {
	if s.depth == 0 {
		return Call{}, false
	}
	s.depth--
	c := s.entries[s.depth]
	s.entries[s.depth] = Call{}
	return c, true
}

/// Depth reports the current number of live entries, for diagnostics and
/// tests.
func (s *CallStack) Depth() int { return s.depth }
