package thread

import (
	"rv39kernel/frame"
	"rv39kernel/ktoken"
	"rv39kernel/pagetable"
	"rv39kernel/platform"
)

/// Thread is a frame-resident record binding a parked or running
/// register context to an address space, with a bounded call stack and an
/// optional exception handler. context lives inline (no dynamic kernel
/// heap, per spec Non-goals); parked reports whether it currently holds
/// live state. resume takes the context out (parked becomes false) for
/// the duration of user execution, reinstalling it when the trap returns
/// (spec §3/§4.4's Parked/Running state machine). exceptionCall is itself
/// a capability (CallCap), not inline data -- spec §3 distinguishes the
/// call stack's plain Call values from the exception slot's owned
/// CallCap.
type Thread struct {
	context       Context
	parked        bool
	l2Table       pagetable.L2Table
	callStack     CallStack
	hasExcept     bool
	exceptionCall CallCap
}

/// ThreadCap is the capability wrapping a frame-resident Thread.
type ThreadCap struct {
	arc frame.Arc[Thread]
}

/// NewThreadCap creates a thread parked at ctx, bound to l2Table, with an
/// empty call stack and no exception handler.
func NewThreadCap(reg *frame.Registry, idx frame.Index, ctx Context, l2Table pagetable.L2Table) (ThreadCap, bool) {
	t := Thread{
		context: ctx,
		parked:  true,
		l2Table: l2Table,
	}
	arc, ok := frame.New(reg, idx, frame.Internal, t)
	if !ok {
		return ThreadCap{}, false
	}
	return ThreadCap{arc: arc}, true
}

/// FromRawThreadCap resurrects a ThreadCap from a bare frame index
/// previously produced by IntoRaw.
func FromRawThreadCap(reg *frame.Registry, idx frame.Index) ThreadCap {
	return ThreadCap{arc: frame.FromRaw[Thread](reg, idx)}
}

/// Index returns the backing frame index.
func (c ThreadCap) Index() frame.Index { return c.arc.Index() }

/// Context returns a mutable view of the thread's parked register
/// context, for the dispatch loop to read syscall arguments from and
/// advance pc in between resumes. Panics if the thread is currently
/// running (parked is false) -- the caller only ever calls this right
/// after Resume returns successfully, which always reparks first.
func (c ThreadCap) Context(token *ktoken.Token) *Context {
	_ = token
	t := c.arc.Deref()
	if !t.parked {
		panic("thread: Context called while thread is running")
	}
	return &t.context
}

/// Clone shares ownership of the same thread record.
func (c ThreadCap) Clone() ThreadCap { return ThreadCap{arc: c.arc.Clone()} }

/// Drop releases this handle, dropping the bound l2Table and any parked
/// exception call's l2Table if this was the last live handle.
func (c ThreadCap) Drop() { c.arc.Drop() }

/// IntoRaw forgets this handle, returning the CapThread tag and frame
/// index for embedding in a capability entry.
func (c ThreadCap) IntoRaw() (pagetable.CapTag, frame.Index) {
	return pagetable.CapThread, c.arc.IntoRaw()
}

/// Destroy satisfies frame.Destroyer: a thread record owns its bound
/// l2Table and, if installed, its exception call capability.
func (t *Thread) Destroy() {
	t.l2Table.Drop()
	if t.hasExcept {
		t.exceptionCall.Drop()
	}
}

/// SetExceptionCall installs call as the exception handler, dropping any
/// prior one.
func (c ThreadCap) SetExceptionCall(token *ktoken.Token, call CallCap) {
	_ = token
	t := c.arc.Deref()
	if t.hasExcept {
		t.exceptionCall.Drop()
	}
	t.exceptionCall = call
	t.hasExcept = true
}

/// Call performs the call-stack-push transition: fails if the thread is
/// currently executing (parked is false) or the call stack is already at
/// maxCallDepth. On success the current {pc, sp, l2Table} is pushed and
/// the context's pc/sp and the thread's l2Table are overwritten with
/// target's.
func (c ThreadCap) Call(token *ktoken.Token, target Call) bool {
	_ = token
	t := c.arc.Deref()
	if !t.parked {
		return false
	}
	saved := Call{Pc: t.context.Pc, Sp: t.context.Sp, L2Table: t.l2Table}
	if !t.callStack.Push(saved) {
		return false
	}
	t.context.Pc = target.Pc
	t.context.Sp = target.Sp
	t.l2Table = target.L2Table
	return true
}

/// CallException performs Call with the installed exception handler; a
/// no-op (returns true, no state change) if none is installed.
func (c ThreadCap) CallException(token *ktoken.Token) bool {
	t := c.arc.Deref()
	if !t.hasExcept {
		return true
	}
	return c.Call(token, t.exceptionCall.Get())
}

/// Ret pops the call stack, restoring pc, sp, and l2Table. Fails if the
/// stack is empty.
func (c ThreadCap) Ret(token *ktoken.Token) bool {
	_ = token
	t := c.arc.Deref()
	if !t.parked {
		return false
	}
	popped, ok := t.callStack.Pop()
	if !ok {
		return false
	}
	t.context.Pc = popped.Pc
	t.context.Sp = popped.Sp
	t.l2Table = popped.L2Table
	return true
}

/// Resume is the central transition (spec §4.4). It takes the context out
/// of the thread (parked becomes false, so a concurrent resume on another
/// hart fails below), activates the thread's l2Table, releases the token,
/// performs the user-mode entry via platform.ResumeUserFn, on trap
/// reacquires the token, reinstalls the context, and returns the fault
/// cause and auxiliary value. Fails, returning only the token it was given
/// (never released), if the thread was already executing (parked already
/// false) on another hart.
func (c ThreadCap) Resume(token ktoken.Token, hart int) (ktoken.Token, uint64, uint64, bool) {
	t := c.arc.Deref()
	if !t.parked {
		return token, 0, 0, false
	}
	t.parked = false

	t.l2Table.Activate(&token, hart)
	token.Release()

	scause, stval := platform.ResumeUserFn((*platform.Context32)(t.context.asWords()))

	token = ktoken.Acquire()
	t.parked = true
	return token, scause, stval, true
}

/// CallCap is the capability wrapping a frame-resident Call record,
/// usable as a standalone resumption target (e.g. an exception handler
/// installed via SetExceptionCall before it is copied into the thread).
type CallCap struct {
	arc frame.Arc[Call]
}

/// NewCallCap creates a parked resumption record {pc, sp, l2Table}.
func NewCallCap(reg *frame.Registry, idx frame.Index, pc, sp uint64, l2Table pagetable.L2Table) (CallCap, bool) {
	arc, ok := frame.New(reg, idx, frame.Internal, Call{Pc: pc, Sp: sp, L2Table: l2Table})
	if !ok {
		return CallCap{}, false
	}
	return CallCap{arc: arc}, true
}

/// FromRawCallCap resurrects a CallCap from a bare frame index previously
/// produced by IntoRaw.
func FromRawCallCap(reg *frame.Registry, idx frame.Index) CallCap {
	return CallCap{arc: frame.FromRaw[Call](reg, idx)}
}

/// Index returns the backing frame index.
func (c CallCap) Index() frame.Index { return c.arc.Index() }

/// Get returns the parked call record.
func (c CallCap) Get() Call { return *c.arc.Deref() }

/// Clone shares ownership of the same call record.
func (c CallCap) Clone() CallCap { return CallCap{arc: c.arc.Clone()} }

/// Drop releases this handle, dropping the referenced l2Table if this was
/// the last live handle.
func (c CallCap) Drop() { c.arc.Drop() }

/// IntoRaw forgets this handle, returning the CapCall tag and frame index.
func (c CallCap) IntoRaw() (pagetable.CapTag, frame.Index) {
	return pagetable.CapCall, c.arc.IntoRaw()
}

/// Destroy satisfies frame.Destroyer: a call record owns its l2Table.
func (call *Call) Destroy() { call.L2Table.Drop() }

func init() {
	pagetable.RegisterCapDrop(pagetable.CapThread, func(reg *frame.Registry, idx frame.Index) {
		FromRawThreadCap(reg, idx).Drop()
	})
	pagetable.RegisterCapDrop(pagetable.CapCall, func(reg *frame.Registry, idx frame.Index) {
		FromRawCallCap(reg, idx).Drop()
	})
}
