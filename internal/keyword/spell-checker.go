package keyword

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is a dictionary term close to a query term.
type Suggestion struct {
	Term      string  // The suggested term
	Distance  int     // Edit distance between the accent-folded forms
	Frequency int     // Document frequency
	Score     float64 // frequency / (distance + 1)
}

// SpellChecker proposes "did you mean" reformulations from the article vocabulary.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int
	minTermLength  int

	mu      sync.RWMutex
	terms   []string
	termSet map[string]struct{}
	valid   bool
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms found in fewer than f articles.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions returned per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// WithMinTermLength leaves query terms shorter than n runes uncorrected.
func WithMinTermLength(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.minTermLength = n
		}
	}
}

// NewSpellChecker creates a SpellChecker over dict. The vocabulary is loaded lazily.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
		minTermLength:  4,
		termSet:        make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate marks the vocabulary stale; the next call reloads it.
func (s *SpellChecker) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

// RefreshCache reloads the vocabulary from the dictionary.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[Fold(t)] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms = terms
	s.termSet = set
	s.valid = true
	return nil
}

func (s *SpellChecker) ensureCache() error {
	s.mu.RLock()
	valid := s.valid
	s.mu.RUnlock()
	if valid {
		return nil
	}
	return s.RefreshCache()
}

// Known reports whether term, compared without accents, is in the vocabulary.
func (s *SpellChecker) Known(term string) bool {
	if err := s.ensureCache(); err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.termSet[Fold(term)]
	return ok
}

// Suggest returns vocabulary terms within the maximum distance of term, best first.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	if err := s.ensureCache(); err != nil {
		return nil
	}
	folded := Fold(term)
	lower := strings.ToLower(term)

	s.mu.RLock()
	terms := s.terms
	s.mu.RUnlock()

	suggestions := make([]Suggestion, 0)
	for _, dictTerm := range terms {
		if dictTerm == lower {
			continue
		}
		dictFolded := Fold(dictTerm)
		lenDiff := len([]rune(dictFolded)) - len([]rune(folded))
		if lenDiff < 0 {
			lenDiff = -lenDiff
		}
		if lenDiff > s.maxDistance {
			continue
		}
		distance := LevenshteinDistance(folded, dictFolded)
		if distance > s.maxDistance {
			continue
		}
		freq, err := s.dictionary.GetTermFrequency(dictTerm)
		if err != nil || freq < s.minFreq {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Term:      dictTerm,
			Distance:  distance,
			Frequency: freq,
			Score:     float64(freq) / float64(distance+1),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Term < suggestions[j].Term
	})
	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}
	return suggestions
}

// Correct rewrites the unknown terms of query with their best suggestion.
// It reports false when nothing was changed.
func (s *SpellChecker) Correct(query string) (string, bool) {
	terms := tokenizeQuery(query)
	changed := false
	for i, term := range terms {
		if len([]rune(term)) < s.minTermLength || s.Known(term) {
			continue
		}
		if suggestions := s.Suggest(term); len(suggestions) > 0 {
			terms[i] = suggestions[0].Term
			changed = true
		}
	}
	if !changed {
		return query, false
	}
	return strings.Join(terms, " "), true
}
