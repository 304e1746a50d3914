package ranking

import (
	"math"
	"strings"
)

// ContentScorer scores article content by substring evidence.
// Every method expects lowercased content.
type ContentScorer struct {
	config *RetrievalWeights
}

// NewContentScorer creates a ContentScorer. A nil config uses the defaults.
func NewContentScorer(config *RetrievalWeights) *ContentScorer {
	if config == nil {
		config = DefaultRetrievalWeights()
	}
	return &ContentScorer{config: config}
}

// Occurrences sums how many times each keyword occurs in content.
func (s *ContentScorer) Occurrences(keywords []string, content string) float64 {
	total := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		total += strings.Count(content, kw)
	}
	return float64(total)
}

// Containment counts the keywords that occur at least once in content.
func (s *ContentScorer) Containment(keywords []string, content string) float64 {
	return float64(CountMatchingTerms(keywords, content))
}

// Exhaustive scores content for the last-resort scan: one point per contained
// question word, a bonus when the main topic appears, one point per contained
// entity and keyword, then a length bonus. Content with no evidence scores 0.
func (s *ContentScorer) Exhaustive(sig Signals, content string) float64 {
	score := s.config.WordWeight * float64(CountMatchingTerms(sig.Words, content))
	if sig.MainTopic != "" && strings.Contains(content, sig.MainTopic) {
		score += s.config.MainTopicBonus
	}
	score += s.config.EntityWeight * float64(CountMatchingTerms(sig.Entities, content))
	score += s.config.KeywordWeight * float64(CountMatchingTerms(sig.Keywords, content))
	if score == 0 {
		return 0
	}
	return score + s.LengthBonus(len(content))
}

// LengthBonus favors detailed articles, capped at LengthBonusMax.
func (s *ContentScorer) LengthBonus(contentLen int) float64 {
	if s.config.LengthBonusUnit <= 0 {
		return 0
	}
	return math.Min(float64(contentLen)/s.config.LengthBonusUnit, s.config.LengthBonusMax)
}

// CountMatchingTerms counts how many terms are found in text (lowercased).
func CountMatchingTerms(terms []string, text string) int {
	count := 0
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			count++
		}
	}
	return count
}
