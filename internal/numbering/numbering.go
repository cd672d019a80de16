// Package numbering renders sequential human-readable ticket numbers.
// The arithmetic is pure; the ticket repository runs it inside the
// insertion transaction so concurrent creations cannot produce
// duplicates.
package numbering

import (
	"fmt"
	"strconv"
	"strings"
)

// MinDigits is the minimum zero-padded width of the numeric part.
// Width grows naturally past 999999.
const MinDigits = 6

// Next derives the number following last for the given prefix. An empty
// last (no prior ticket of the type) starts the sequence at 1. A last
// value whose digits fail to parse restarts the sequence at 1 as well;
// that is a defined fallback, not an error.
func Next(prefix, last string) string {
	var seq uint64
	if last != "" {
		digits := strings.TrimPrefix(last, prefix)
		if parsed, err := strconv.ParseUint(digits, 10, 64); err == nil {
			seq = parsed
		}
	}
	return Format(prefix, seq+1)
}

// Format renders a sequence value with the prefix and minimum padding.
func Format(prefix string, seq uint64) string {
	return fmt.Sprintf("%s%0*d", prefix, MinDigits, seq)
}
