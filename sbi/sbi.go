// Package sbi wraps the three Supervisor Binary Interface calls the core
// depends on as an out-of-scope collaborator (spec §1/§6): console
// output, shutdown, and the base extension's version probe. Each is an
// `ecall` with the extension id in a7, function id in a6, and arguments in
// a0..a5; SBI returns its (error, value) pair in a0, a1.
//
// Declared body-less and implemented in the boot assembly collaborator,
// the same pattern platform uses for swapSatp/resumeUser/fenceTLB,
// grounded on gopher-os-gopher-os/kernel/cpu/cpu_amd64.go's
// assembly-backed Go declarations.
package sbi

/// consolePutChar is SBI legacy extension 0x01 (console putchar):
/// transmits a single byte to the firmware console, blocking if the
/// transmit buffer is full.
func consolePutChar(b byte)

/// ConsolePutCharFn is substituted in tests.
var ConsolePutCharFn = consolePutChar

/// ConsolePutChar writes b to the firmware console.
func ConsolePutChar(b byte) { ConsolePutCharFn(b) }

/// shutdown is the SBI System Reset extension (SRST), reset type 0
/// (shutdown), reset reason 0 (no reason). Never returns on real
/// firmware; the bool result exists only so a test substitute can report
/// that it was invoked instead of halting the test process.
func shutdown() (noreturn bool)

/// ShutdownFn is substituted in tests.
var ShutdownFn = shutdown

/// Shutdown asks the firmware to power off the machine.
func Shutdown() (noreturn bool) { return ShutdownFn() }

/// probeVersion is the SBI Base extension, function 0x2
/// (sbi_get_spec_version): returns the firmware's supported SBI
/// specification major and minor version.
func probeVersion() (major, minor uint32)

/// ProbeVersionFn is substituted in tests.
var ProbeVersionFn = probeVersion

/// ProbeVersion returns the firmware's SBI specification version.
func ProbeVersion() (major, minor uint32) { return ProbeVersionFn() }
