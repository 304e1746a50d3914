// Package concepts holds the static French legal vocabulary used to expand
// questions into entities, synonyms and themes. The tables are read-only;
// every lookup returns a fresh slice.
package concepts

import "strings"

// Theme is a named cluster of related legal keywords.
type Theme struct {
	Name     string
	Keywords []string
}

// SynonymsOf returns the synonym set of a concept, or nil when term is not a known concept.
// The concept itself is part of its set.
func SynonymsOf(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	for _, g := range synonyms {
		if g.concept == term {
			return clone(g.synonyms)
		}
	}
	return nil
}

// ThemeOf returns the names of every theme whose keywords contain term.
func ThemeOf(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []string
	for _, th := range themes {
		for _, kw := range th.Keywords {
			if kw == term {
				out = append(out, th.Name)
				break
			}
		}
	}
	return out
}

// Themes returns every theme in table order.
func Themes() []Theme {
	out := make([]Theme, len(themes))
	for i, th := range themes {
		out[i] = Theme{Name: th.Name, Keywords: clone(th.Keywords)}
	}
	return out
}

// DetectEntities returns, in table order, the entities whose trigger words occur in text.
// text must already be lowercased.
func DetectEntities(text string) []string {
	var out []string
	for _, e := range entities {
		if containsAny(text, e.detect) {
			out = append(out, e.name)
		}
	}
	return out
}

// EntityKeywords returns the words that locate an entity in article text.
func EntityKeywords(name string) []string {
	for _, e := range entities {
		if e.name == name {
			return clone(e.search)
		}
	}
	return nil
}

// ContextKeywords returns contextual keywords implied by text (lowercased), deduplicated.
func ContextKeywords(text string) []string {
	return applyRules(text, contextRules)
}

// ExtendedKeywords returns the broader legal terms implied by text (lowercased).
// The second result is false when no rule fired and the returned list is the default one.
func ExtendedKeywords(text string) ([]string, bool) {
	out := applyRules(text, extendedRules)
	if len(out) == 0 {
		return clone(defaultExtended), false
	}
	return out, true
}

// Concepts returns, in table order, every concept with a synonym occurring in text (lowercased).
func Concepts(text string) []string {
	var out []string
	for _, g := range synonyms {
		if containsAny(text, g.synonyms) {
			out = append(out, g.concept)
		}
	}
	return out
}

// BestTheme returns the theme with the most keywords occurring in text (lowercased).
// Ties go to the theme listed first.
func BestTheme(text string) (Theme, bool) {
	best, bestScore := -1, 0
	for i, th := range themes {
		score := 0
		for _, kw := range th.Keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Theme{}, false
	}
	return Theme{Name: themes[best].Name, Keywords: clone(themes[best].Keywords)}, true
}

func applyRules(text string, rules []rule) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rules {
		if !containsAny(text, r.triggers) {
			continue
		}
		for _, kw := range r.keywords {
			if !seen[kw] {
				seen[kw] = true
				out = append(out, kw)
			}
		}
	}
	return out
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
