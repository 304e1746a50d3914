package indexer

import (
	"regexp"
	"strings"
	"unicode"
)

// words split across a PDF line break: "consti- tution"
var brokenWord = regexp.MustCompile(`(\p{Ll})-\s+(\p{Ll})`)

var invisible = strings.NewReplacer(
	"\u00ad", "", // soft hyphen
	"\u200b", "", // zero width space
	"\ufeff", "", // byte order mark
	"\u2019", "'",
	"\u2018", "'",
)

// Preprocess normalizes extracted text: invisible characters dropped, typographic
// apostrophes made ASCII, whitespace collapsed, and words hyphenated across a line
// break rejoined.
func Preprocess(text string) string {
	text = strings.TrimSpace(invisible.Replace(text))
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		wasSpace = false
	}
	return brokenWord.ReplaceAllString(b.String(), "$1$2")
}
