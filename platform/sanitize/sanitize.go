// Package sanitize normalizes free-text identifiers before they are stored.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var markupRegex = regexp.MustCompile(`<[^>]*>`)

// Text strips markup and control characters and collapses runs of
// whitespace into a single space.
func Text(s string) string {
	s = markupRegex.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
