package search

import (
	"strings"
	"unicode"

	"github.com/hyperjump/konsti/pkg/utils"
)

const minHighlightTerm = 3

// Highlight returns an excerpt of at most maxLen runes of content, starting a little
// before the first occurrence of a query word so the match is visible. Without a
// match it falls back to the head of the content. Cuts are marked with "...".
func Highlight(content, query string, maxLen int) string {
	runes := []rune(content)
	if maxLen <= 0 || len(runes) <= maxLen {
		return content
	}
	at := firstMatch(runes, queryTerms(query))
	if at < 0 {
		return utils.Truncate(content, maxLen)
	}

	start := at - maxLen/4
	if start < 0 {
		start = 0
	}
	if start+maxLen > len(runes) {
		start = len(runes) - maxLen
	}
	// skip the partial word we landed in, never past the match
	for start > 0 && start < at && !unicode.IsSpace(runes[start-1]) {
		start++
	}
	end := start + maxLen
	if end > len(runes) {
		end = len(runes)
	}

	excerpt := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(runes) {
		excerpt += "..."
	}
	return excerpt
}

func queryTerms(query string) [][]rune {
	var terms [][]rune
	for _, w := range strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(w)) < minHighlightTerm {
			continue
		}
		terms = append(terms, lowerRunes([]rune(w)))
	}
	return terms
}

// firstMatch returns the rune offset of the earliest term occurrence, or -1.
// Lowercasing rune by rune keeps offsets aligned with the original content.
func firstMatch(content []rune, terms [][]rune) int {
	if len(terms) == 0 {
		return -1
	}
	lower := lowerRunes(content)
	for i := range lower {
		for _, t := range terms {
			if hasPrefixRunes(lower[i:], t) {
				return i
			}
		}
	}
	return -1
}

func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func hasPrefixRunes(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}
