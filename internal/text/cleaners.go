// Package text turns user text into the symbol ids the synthesizer consumes.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

type abbreviation struct {
	re   *regexp.Regexp
	full string
}

var abbreviations = func() []abbreviation {
	pairs := [][2]string{
		{"mrs", "misess"},
		{"mr", "mister"},
		{"dr", "doctor"},
		{"st", "saint"},
		{"co", "company"},
		{"jr", "junior"},
		{"maj", "major"},
		{"gen", "general"},
		{"drs", "doctors"},
		{"rev", "reverend"},
		{"lt", "lieutenant"},
		{"hon", "honorable"},
		{"sgt", "sergeant"},
		{"capt", "captain"},
		{"esq", "esquire"},
		{"ltd", "limited"},
		{"col", "colonel"},
		{"ft", "fort"},
	}
	out := make([]abbreviation, len(pairs))
	for i, p := range pairs {
		out[i] = abbreviation{re: regexp.MustCompile(`\b` + p[0] + `\.`), full: p[1]}
	}
	return out
}()

// Clean normalises English text for the synthesizer: accents are folded to
// ASCII, text is lower-cased, numbers and common abbreviations are spelled
// out and runs of whitespace collapse to one space.
func Clean(s string) string {
	s = foldASCII(s)
	s = strings.ToLower(s)
	s = ExpandNumbers(s)
	for _, a := range abbreviations {
		s = a.re.ReplaceAllString(s, a.full)
	}
	return whitespaceRE.ReplaceAllString(s, " ")
}

// foldASCII strips combining marks after canonical decomposition, so "café"
// becomes "cafe". Characters without an ASCII base are left for the symbol
// table to drop.
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
