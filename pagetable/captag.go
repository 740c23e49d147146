package pagetable

import "rv39kernel/frame"

/// CapTag identifies the kind of capability-bearing object a capability
/// entry (or an embedded ownership transfer like L2Table.give the kernel
/// L1 table) refers to. Values match spec §3/§6 exactly.
type CapTag uint8

const (
	CapL2Table CapTag = 0
	CapL1Table CapTag = 1
	CapL0Table CapTag = 2
	CapPage    CapTag = 5
	CapThread  CapTag = 6
	CapCall    CapTag = 7
)

/// String names the tag for diagnostics.
func (t CapTag) String() string {
	switch t {
	case CapL2Table:
		return "L2"
	case CapL1Table:
		return "L1"
	case CapL0Table:
		return "L0"
	case CapPage:
		return "Page"
	case CapThread:
		return "Thread"
	case CapCall:
		return "Call"
	default:
		return "CapTag(?)"
	}
}

/// Capability is implemented by every capability-bearing type
/// (L2Table/L1Table/L0Table here, and Page/Thread/Call in their own
/// packages). IntoRaw forgets the handle -- exactly frame.Arc.IntoRaw --
/// and reports the tag identifying which drop handler can resurrect it.
type Capability interface {
	IntoRaw() (CapTag, frame.Index)
}

// dropHandlers lets every capability-bearing type -- including L0/L1/L2
// here, and cap/thread's Page/Thread/Call, which cannot be imported from
// this package without cycling back through it (Thread/Call embed an
// L2Table) -- register how to resurrect-and-drop a capability of its own
// tag from its init(). Mirrors the standard library's driver-registration
// idiom (e.g. database/sql.Register) rather than any corpus example, since
// no pack repo needed to break a capability-table/payload-type import
// cycle this way; see DESIGN.md.
var dropHandlers = map[CapTag]func(*frame.Registry, frame.Index){}

/// RegisterCapDrop installs the resurrect-and-drop handler for tag. Called
/// from the init() of whichever package owns that capability kind (cap,
/// thread).
func RegisterCapDrop(tag CapTag, fn func(*frame.Registry, frame.Index)) {
	dropHandlers[tag] = fn
}

/// dropCapability resurrects and drops whatever capability entry e encodes.
/// Panics if no handler was registered for e's tag -- a capability entry
/// whose owning package never registered a handler is a wiring bug, not a
/// recoverable runtime condition.
func dropCapability(reg *frame.Registry, e Entry) {
	fn, ok := dropHandlers[e.CapTagValue()]
	if !ok {
		panic("pagetable: no drop handler registered for capability tag " + e.CapTagValue().String())
	}
	fn(reg, e.PPN())
}
