package ranking

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/konsti/internal/concepts"
)

// Explicit article references are tried before bare numbers.
var (
	articleRefPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\barticles?\s+(\d+)`),
		regexp.MustCompile(`\bl['’]article\s+(\d+)`),
		regexp.MustCompile(`\bart\.\s*(\d+)`),
	}
	bareNumberPattern = regexp.MustCompile(`\b(\d{1,4})\b`)
)

var questionTypeRules = []struct {
	qtype    QuestionType
	triggers []string
}{
	{QuestionProcedure, []string{"comment"}},
	{QuestionTiming, []string{"quand"}},
	{QuestionActor, []string{"qui"}},
	{QuestionDefinition, []string{"quoi", "qu'est-ce", "définition"}},
	{QuestionReason, []string{"pourquoi", "raison", "cause"}},
	{QuestionList, []string{"quels", "quelles", "liste"}},
}

// French function words long enough to pass the word-length filter.
var stopwords = map[string]bool{
	"alors": true, "aussi": true, "avec": true, "avoir": true, "cela": true, "ceci": true,
	"cette": true, "ces": true, "chez": true, "comment": true, "dans": true, "depuis": true,
	"donc": true, "elle": true, "elles": true, "entre": true, "est-ce": true, "être": true,
	"fait": true, "leur": true, "leurs": true, "mais": true, "moins": true, "nous": true,
	"notre": true, "parle": true, "parler": true, "peut": true, "plus": true, "pour": true,
	"pourquoi": true, "qu'est-ce": true, "quand": true, "quel": true, "quelle": true,
	"quelles": true, "quels": true, "quoi": true, "sans": true, "selon": true, "sont": true,
	"sous": true, "tous": true, "tout": true, "toute": true, "toutes": true, "très": true,
	"votre": true, "vous": true, "vers": true,
}

// QueryAnalyzer turns a question into the signals the retriever tiers consume.
type QueryAnalyzer struct {
	minWordLength int
}

// NewQueryAnalyzer creates a QueryAnalyzer. Words strictly longer than minWordLength
// count as long words; 0 uses the default.
func NewQueryAnalyzer(minWordLength int) *QueryAnalyzer {
	if minWordLength <= 0 {
		minWordLength = DefaultRetrievalWeights().MinWordLength
	}
	return &QueryAnalyzer{minWordLength: minWordLength}
}

// Analyze parses a question and returns an AnalyzedQuery.
func (qa *QueryAnalyzer) Analyze(query string) *AnalyzedQuery {
	lower := strings.ToLower(strings.TrimSpace(query))
	result := &AnalyzedQuery{
		Original: query,
		Lower:    lower,
	}

	for _, w := range strings.Fields(lower) {
		if n := normalizeToken(w); n != "" {
			result.Words = append(result.Words, n)
		}
	}
	seen := make(map[string]bool)
	for _, w := range result.Words {
		if utf8.RuneCountInString(w) <= qa.minWordLength || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		result.LongWords = append(result.LongWords, w)
	}

	result.ArticleNumbers = ExtractArticleNumbers(lower)
	result.Entities = concepts.DetectEntities(lower)
	if len(result.Entities) > 0 {
		result.MainTopic = result.Entities[0]
	}
	result.ContextKeywords = concepts.ContextKeywords(lower)
	result.Concepts = concepts.Concepts(lower)
	result.Type = qa.classify(result)

	return result
}

func (qa *QueryAnalyzer) classify(q *AnalyzedQuery) QuestionType {
	words := make(map[string]bool, len(q.Words))
	for _, w := range q.Words {
		words[w] = true
	}
	for _, r := range questionTypeRules {
		for _, trig := range r.triggers {
			if strings.ContainsAny(trig, "' ") {
				if strings.Contains(q.Lower, trig) {
					return r.qtype
				}
			} else if words[trig] {
				return r.qtype
			}
		}
	}
	return QuestionGeneral
}

// ExtractArticleNumbers returns the article numbers named in text, deduplicated
// in order of appearance. Explicit "article N" references win; a bare number is
// used only when no explicit reference exists.
func ExtractArticleNumbers(text string) []string {
	text = strings.ToLower(text)
	type hit struct {
		pos int
		num string
	}
	var hits []hit
	for _, re := range articleRefPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			hits = append(hits, hit{pos: m[2], num: text[m[2]:m[3]]})
		}
	}
	if len(hits) == 0 {
		for _, m := range bareNumberPattern.FindAllStringSubmatchIndex(text, -1) {
			hits = append(hits, hit{pos: m[2], num: text[m[2]:m[3]]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	seen := make(map[string]bool)
	var out []string
	for _, h := range hits {
		n := strings.TrimLeft(h.num, "0")
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// normalizeToken lowercases a token and trims punctuation from its edges,
// keeping inner apostrophes and hyphens.
func normalizeToken(token string) string {
	token = strings.ToLower(token)
	return strings.TrimFunc(token, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
