//go:build tools

// Package-level tool dependency pin: keeps golang.org/x/tools/cmd/stringer
// in go.mod so `go generate` (the //go:generate stringer directive in
// frame) resolves to a pinned version instead of whatever
// happens to be on a contributor's PATH.
package rv39kernel

import _ "golang.org/x/tools/cmd/stringer"
