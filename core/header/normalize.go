// Package header canonicalizes spreadsheet column names and free-text
// identifiers so that spellings differing only in case, accents or spacing
// compare equal.
package header

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize uppercases s, strips diacritics and collapses runs of
// whitespace into a single space. Leading and trailing space is removed.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(out)), " ")
}

// Equal reports whether a and b normalize to the same key.
func Equal(a, b string) bool { return Normalize(a) == Normalize(b) }
