// Package kfmt is the kernel's diagnostic formatter: printf-style logging
// through the SBI console, and escaping of raw console byte chunks for
// scenario S1's "unicode-escaped" output requirement.
//
// Grounded on Oichkatzelesfrettschen-biscuit/biscuit/src/mem/mem.go's
// Phys_init, which logs allocator diagnostics with plain fmt.Printf; this
// package keeps that fmt.Printf-based shape but routes bytes through
// sbi.ConsolePutChar instead of a hosted stdout, and adds
// golang.org/x/text/transform-based escaping (the ambient-stack
// enrichment SPEC_FULL.md calls for) since the kernel console has no
// terminal to render control bytes for it.
package kfmt

import (
	"fmt"
	"strings"

	"golang.org/x/text/transform"

	"rv39kernel/sbi"
)

/// Logf formats according to format (exactly like fmt.Sprintf) and writes
/// the result to the SBI console one byte at a time, escaping
/// non-printable bytes via Escape first.
func Logf(format string, args ...any) {
	WriteString(Escape([]byte(fmt.Sprintf(format, args...))))
}

/// WriteString writes s to the console verbatim, one byte at a time, with
/// no further escaping (callers that already escaped, or that know their
/// payload is safe, use this directly).
func WriteString(s string) {
	for i := 0; i < len(s); i++ {
		sbi.ConsolePutChar(s[i])
	}
}

/// Escape renders data as a printable string, backslash-escaping any byte
/// outside the printable ASCII range (0x20-0x7e) as \xNN, the convention
/// spec scenario S1 calls "unicode-escaped" console output.
func Escape(data []byte) string {
	out, _, err := transform.String(escaper{}, string(data))
	if err != nil {
		// transform.String only errors on malformed input in dst/src
		// handling internal to the package; escaper never reports one.
		panic("kfmt: unreachable transform error: " + err.Error())
	}
	return out
}

// escaper is a transform.Transformer that rewrites each non-printable
// byte as a four-character \xNN escape and passes printable bytes through
// unchanged.
type escaper struct{ transform.NopResetter }

func (escaper) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		b := src[nSrc]
		var chunk string
		if b >= 0x20 && b < 0x7f {
			chunk = string(rune(b))
		} else {
			chunk = fmt.Sprintf("\\x%02x", b)
		}
		if nDst+len(chunk) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], chunk)
		nSrc++
	}
	return nDst, nSrc, nil
}

/// ConsoleChunk decodes an 8-byte big-endian chunk (spec §4.7/§6's
/// SyscallConsoleWrite convention) into its constituent bytes, in wire
/// order, for logging with Escape.
func ConsoleChunk(word uint64) [8]byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(word >> (8 * (7 - i)))
	}
	return b
}

/// TrimPadding strips trailing ASCII spaces (0x20), the padding byte
/// scenario S1 uses for its final, partial 8-byte chunk.
func TrimPadding(s string) string {
	return strings.TrimRight(s, " ")
}
