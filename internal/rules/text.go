package rules

import (
	"strings"

	"github.com/lychee-technology/inquiry"
)

// Whitespace is the set trimmed before emptiness, length and pattern checks.
// The widget runtime embeds the same characters.
const Whitespace = inquiry.Whitespace

// Trim removes leading and trailing Whitespace.
func Trim(s string) string {
	return strings.Trim(s, Whitespace)
}

// Length counts UTF-16 code units, which is what String.length reports in a
// browser.
func Length(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
