package boot

import (
	"sync/atomic"

	"rv39kernel/kfmt"
	"rv39kernel/sbi"
)

// panicking latches true on the first Panic call; a nested panic (one
// reached while the first is still printing/resetting) spins forever
// rather than recursing, per spec §7 ("nested panics spin").
var panicking atomic.Bool

/// Panic is the single fatal-path helper every unrecoverable invariant
/// violation funnels through (spec §7): boot.Run's default trap-cause
/// branch, and every "could not claim an allocator frame" condition during
/// Bootstrap. It prints format/args through the SBI console, then asks the
/// firmware to shut down. Centralized so panics read as one recognizable
/// marker (kfmt.Logf's "panic: " prefix) rather than ad hoc call sites,
/// mirroring the teacher's centralized XXXPANIC assertions.
func Panic(format string, args ...any) {
	if !panicking.CompareAndSwap(false, true) {
		for {
		}
	}
	kfmt.Logf("panic: "+format+"\n", args...)
	sbi.Shutdown()
	for {
	}
}
