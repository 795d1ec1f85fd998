// Package slug generates URL-safe slugs for forum and topic
// permalinks.
//
// Unicode input is normalized (NFKD) and stripped of combining marks,
// so "Café & Restaurant" becomes "cafe-restaurant". Anything that is
// not a letter or digit collapses into single hyphens.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Make converts s into a lowercase hyphen-separated slug.
// Returns "" when nothing slug-worthy remains.
func Make(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true // suppress leading hyphens
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			// Non-ASCII letters that survived normalization (CJK etc.)
			// are kept as-is; URLs handle them via percent-encoding.
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

// MakeWithFallback returns Make(s), or fallback when the slug would be
// empty (all-symbol titles).
func MakeWithFallback(s, fallback string) string {
	if out := Make(s); out != "" {
		return out
	}
	return fallback
}
