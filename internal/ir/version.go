package ir

import (
	"fmt"
	"strings"
)

// Version constants for the IR schema and the compiler.
const (
	// Version is the IR schema version.
	Version = "1"

	// CompilerVersion is the toolchain version.
	CompilerVersion = "0.1.0"
)

// SourceHeader returns the required opening string literal of every source
// module: "reach " followed by the toolchain's major.minor version.
func SourceHeader() string {
	parts := strings.SplitN(CompilerVersion, ".", 3)
	return fmt.Sprintf("reach %s.%s", parts[0], parts[1])
}
