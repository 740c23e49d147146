package boot

import (
	"rv39kernel/kfmt"
	"rv39kernel/ktoken"
	"rv39kernel/machine"
	"rv39kernel/sbi"
	"rv39kernel/thread"
)

/// Run is spec §4.7 step 5, the trap-dispatch loop: call resume; dispatch
/// on scause; for an environment call, inspect a0 (0 shuts down, 1 writes
/// an 8-byte console chunk, anything else is logged as a diagnostic);
/// advance pc by 4; continue. Any other trap cause is fatal. token is the
/// one Bootstrap returned, still held; Run takes ownership of it for the
/// duration of the loop.
func Run(t thread.ThreadCap, token ktoken.Token, hart int) {
	for {
		next, scause, stval, ok := t.Resume(token, hart)
		token = next
		if !ok {
			Panic("resume failed: thread already executing on another hart")
		}
		if scause != machine.EcallCause {
			Panic("unexpected trap: scause=%#x stval=%#x", scause, stval)
		}

		ctx := t.Context(&token)
		switch ctx.A0 {
		case machine.SyscallShutdown:
			sbi.Shutdown()
			return
		case machine.SyscallConsoleWrite:
			chunk := kfmt.ConsoleChunk(ctx.A1)
			kfmt.WriteString(kfmt.Escape(chunk[:]))
		default:
			kfmt.Logf("diag: pc=%#x a0=%#x a1=%#x\n", ctx.Pc, ctx.A0, ctx.A1)
		}
		ctx.Pc += 4
	}
}
