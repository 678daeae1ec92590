// Package slug turns arbitrary titles into URL-safe path segments.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes diacritics after NFD decomposition, so "Pokémon"
// slugifies to "pokemon" rather than dropping the accented rune.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make lowercases s, strips diacritics and collapses every run of
// non-alphanumeric characters into a single hyphen. The result never starts
// or ends with a hyphen. Make("") returns "".
func Make(s string) string {
	flattened, _, err := transform.String(stripMarks, s)
	if err != nil {
		flattened = s
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(flattened) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
