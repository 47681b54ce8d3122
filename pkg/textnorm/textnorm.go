// Package textnorm normalizes editorial text before embedding so that drafts
// and published pages embed comparably regardless of markup and diacritics.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// stripMarks removes combining marks after NFKD decomposition, folding
// diacritics to their ASCII base (é -> e, å -> a).
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Normalize lowercases text, strips HTML tags, folds diacritics to ASCII, and
// collapses everything that is not a letter, digit, or space into single
// spaces. Empty or all-markup input yields "".
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		// Transform errors only occur on malformed UTF-8; fall back to the raw text.
		folded = text
	}

	folded = strings.ToLower(folded)
	folded = htmlTagRe.ReplaceAllString(folded, " ")
	folded = nonAlnumRe.ReplaceAllString(folded, " ")
	folded = whitespaceRe.ReplaceAllString(folded, " ")

	return strings.TrimSpace(folded)
}
