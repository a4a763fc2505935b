package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/edc/internal/journal"
)

// tokenPrefixes are category prefixes the client puts on enumeration
// tokens, as in "$government_Democracy;" or "$SYSTEM_SECURITY_medium;".
var tokenPrefixes = []string{
	"government_",
	"economy_",
	"SYSTEM_SECURITY_",
	"system_security_",
	"SAA_SignalType_",
	"USS_Type_",
}

// CleanToken turns an internal enumeration token into a display label:
// the "$" and ";" markers and a known category prefix are removed,
// underscores become spaces and the first letter is capitalized. The rest
// of the text is kept as is, so abbreviations like "USS" survive.
// Strings that are not tokens pass through with whitespace collapsed.
func CleanToken(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, ";")
	for _, p := range tokenPrefixes {
		if strings.HasPrefix(s, p) {
			s = s[len(p):]
			break
		}
	}
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " ")
	return upperFirst(s)
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// label prefers the client's localized text for key, then a cleaned token.
func label(o journal.Object, key string) string {
	if s := o.Text(key + "_Localised"); s != "" {
		return s
	}
	return CleanToken(o.Text(key))
}

// displayName is the fallback display form of an internal item name that
// arrives without a localized label: "iron" -> "Iron",
// "largecapacitypowerregulator" stays one word.
func displayName(internal string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(internal, "_", " "))
}

// formatter renders credit amounts with thousands separators. Other numbers
// in notices (ids, counts, ranks) go through plain fmt so a body id never
// reads "12,345".
type formatter struct {
	p *message.Printer
}

func newFormatter() formatter {
	return formatter{p: message.NewPrinter(language.English)}
}

// credits renders an amount as "1,234,567 cr".
func (f formatter) credits(n int64) string {
	return f.p.Sprintf("%d cr", n)
}
