// Package naming generates non-colliding display names for exported files.
package naming

import (
	"fmt"
	"strings"
)

// FirstAttempt is the attempt number used for the first rename after a
// collision. The original unmodified name counts as attempt 1.
const FirstAttempt = 2

// Resolve produces a candidate name for the given collision attempt.
// The base name is split into stem and extension at the LAST dot:
//
//	Resolve("report.pdf", 2)  -> "report (2).pdf"
//	Resolve("data.tar.gz", 3) -> "data.tar (3).gz"
//	Resolve("README", 2)      -> "README (2)"
//
// Resolve is pure and deterministic; it never touches the filesystem.
func Resolve(baseName string, attempt int) string {
	idx := strings.LastIndex(baseName, ".")
	if idx < 0 {
		return fmt.Sprintf("%s (%d)", baseName, attempt)
	}
	stem := baseName[:idx]
	ext := baseName[idx+1:]
	return fmt.Sprintf("%s (%d).%s", stem, attempt, ext)
}
