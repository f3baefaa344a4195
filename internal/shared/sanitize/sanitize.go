package sanitize

import (
	"strings"
	"unicode"
)

// Reason normalizes free text before it is persisted: control characters
// are dropped, whitespace runs collapse to a single space, and the result
// is trimmed. Length bounds are enforced by request validation, after
// sanitization.
func Reason(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}
