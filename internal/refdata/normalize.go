package refdata

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key normalizes a lookup key: NFC, whitespace collapsed, case folded.
// Applied to document keys at load and to every query.
func Key(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	// Casers hold state; one per call keeps Key safe for concurrent readers.
	return cases.Fold().String(s)
}

// compactKey keeps only letters and digits of Key(s), so "Earth-like world"
// and "Earthlike World" meet.
func compactKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, Key(s))
}

// tidy collapses whitespace without changing case.
func tidy(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
