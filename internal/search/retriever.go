// Package search ranks constitution articles against a question and builds the
// prompt context from the winners.
package search

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/concepts"
	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/ranking"
)

// Tier identifies the retrieval strategy that produced a result.
type Tier int

const (
	// TierNone means no strategy found anything.
	TierNone Tier = iota
	TierArticleNumber
	TierEntity
	TierExpanded
	TierTheme
	TierSemantic
	TierExhaustive
)

// String returns the log and API name of the tier.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierArticleNumber:
		return "article_number"
	case TierEntity:
		return "entity"
	case TierExpanded:
		return "expanded"
	case TierTheme:
		return "theme"
	case TierSemantic:
		return "semantic"
	case TierExhaustive:
		return "exhaustive"
	default:
		return "unknown"
	}
}

// Result is the outcome of one retrieval. Articles and Scores are parallel and
// never nil; both are empty when Tier is TierNone.
type Result struct {
	Articles []models.Article
	Scores   []float64
	Tier     Tier
	// Query is the analyzed question, reused for fallback suggestions.
	Query *ranking.AnalyzedQuery
}

// Empty reports whether no article was retrieved.
func (r *Result) Empty() bool {
	return len(r.Articles) == 0
}

// TopScore returns the score of the best article, or 0.
func (r *Result) TopScore() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	return r.Scores[0]
}

// Retriever runs the retrieval tiers in order and stops at the first that finds something.
type Retriever struct {
	weights  *ranking.RetrievalWeights
	analyzer *ranking.QueryAnalyzer
	scorer   *ranking.ContentScorer
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets a logger for the tier decision of each retrieval.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// WithWeights overrides the tier caps and scoring weights.
func WithWeights(w *ranking.RetrievalWeights) Option {
	return func(r *Retriever) {
		if w != nil {
			r.weights = w
		}
	}
}

// NewRetriever creates a Retriever with default weights unless WithWeights is given.
func NewRetriever(opts ...Option) *Retriever {
	r := &Retriever{
		weights: ranking.DefaultRetrievalWeights(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.analyzer = ranking.NewQueryAnalyzer(r.weights.MinWordLength)
	r.scorer = ranking.NewContentScorer(r.weights)
	return r
}

// Analyze exposes the question analysis the tiers use.
func (r *Retriever) Analyze(query string) *ranking.AnalyzedQuery {
	return r.analyzer.Analyze(query)
}

// Retrieve ranks articles against query. conversationContext, when not empty, lends
// its entities to the entity and exhaustive tiers if the question names none itself.
// Ties keep corpus order.
func (r *Retriever) Retrieve(query string, articles []models.Article, conversationContext string) *Result {
	q := r.analyzer.Analyze(query)
	corpus := make([]string, len(articles))
	for i, a := range articles {
		corpus[i] = strings.ToLower(a.Content)
	}

	entities := q.Entities
	if len(entities) == 0 && conversationContext != "" {
		entities = concepts.DetectEntities(strings.ToLower(conversationContext))
	}

	tiers := []struct {
		tier Tier
		run  func() []scored
	}{
		{TierArticleNumber, func() []scored { return r.byArticleNumber(q, articles) }},
		{TierEntity, func() []scored { return r.byEntity(q, entities, corpus) }},
		{TierExpanded, func() []scored { return r.byExpandedKeywords(q, corpus) }},
		{TierTheme, func() []scored { return r.byTheme(q, corpus) }},
		{TierSemantic, func() []scored { return r.bySemanticOverlap(q, corpus) }},
		{TierExhaustive, func() []scored { return r.byExhaustiveScan(q, entities, corpus) }},
	}

	for _, t := range tiers {
		hits := t.run()
		if len(hits) == 0 {
			continue
		}
		res := &Result{
			Articles: make([]models.Article, len(hits)),
			Scores:   make([]float64, len(hits)),
			Tier:     t.tier,
			Query:    q,
		}
		for i, h := range hits {
			res.Articles[i] = articles[h.index]
			res.Scores[i] = h.score
		}
		r.logger.Debug("retrieval tier matched",
			zap.String("tier", t.tier.String()),
			zap.Int("articles", len(hits)),
			zap.Float64("top_score", res.TopScore()))
		return res
	}

	r.logger.Debug("retrieval found nothing", zap.Int("corpus", len(articles)))
	return &Result{Articles: []models.Article{}, Scores: []float64{}, Tier: TierNone, Query: q}
}

type scored struct {
	index int
	score float64
}

// rank keeps positive scores, sorts them descending with corpus order on ties and caps the list.
func rank(scores []float64, limit int) []scored {
	var out []scored
	for i, s := range scores {
		if s > 0 {
			out = append(out, scored{index: i, score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func scoreAll(corpus []string, fn func(content string) float64) []float64 {
	scores := make([]float64, len(corpus))
	for i, content := range corpus {
		scores[i] = fn(content)
	}
	return scores
}

// byArticleNumber returns the articles named explicitly, in corpus order.
func (r *Retriever) byArticleNumber(q *ranking.AnalyzedQuery, articles []models.Article) []scored {
	if len(q.ArticleNumbers) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(q.ArticleNumbers))
	for _, n := range q.ArticleNumbers {
		wanted[n] = true
	}
	var out []scored
	for i, a := range articles {
		if wanted[a.Number] {
			out = append(out, scored{index: i, score: 1})
		}
	}
	return out
}

// byEntity counts occurrences of the entities' search words and the question's context keywords.
func (r *Retriever) byEntity(q *ranking.AnalyzedQuery, entities []string, corpus []string) []scored {
	if len(entities) == 0 {
		return nil
	}
	var keywords []string
	for _, e := range entities {
		keywords = append(keywords, concepts.EntityKeywords(e)...)
	}
	keywords = append(keywords, q.ContextKeywords...)
	keywords = dedupe(keywords)
	return rank(scoreAll(corpus, func(c string) float64 { return r.scorer.Occurrences(keywords, c) }), r.weights.EntityCap)
}

// byExpandedKeywords counts the broader legal terms the question implies. The default
// term list only applies to questions that carry some legal vocabulary.
func (r *Retriever) byExpandedKeywords(q *ranking.AnalyzedQuery, corpus []string) []scored {
	keywords, fired := concepts.ExtendedKeywords(q.Lower)
	if !fired && !q.HasSignal() {
		return nil
	}
	return rank(scoreAll(corpus, func(c string) float64 { return r.scorer.Containment(keywords, c) }), r.weights.ExpandedCap)
}

// byTheme scores articles against the keywords of the best matching theme.
func (r *Retriever) byTheme(q *ranking.AnalyzedQuery, corpus []string) []scored {
	theme, ok := concepts.BestTheme(q.Lower)
	if !ok {
		return nil
	}
	return rank(scoreAll(corpus, func(c string) float64 { return r.scorer.Containment(theme.Keywords, c) }), r.weights.ThemeCap)
}

// bySemanticOverlap counts the question's long words and main topic found in each article.
func (r *Retriever) bySemanticOverlap(q *ranking.AnalyzedQuery, corpus []string) []scored {
	terms := append([]string{}, q.LongWords...)
	if q.MainTopic != "" {
		terms = append(terms, q.MainTopic)
	}
	terms = dedupe(terms)
	if limit := r.weights.SemanticMaxTerms; limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}
	if len(terms) == 0 {
		return nil
	}
	return rank(scoreAll(corpus, func(c string) float64 { return r.scorer.Containment(terms, c) }), r.weights.SemanticCap)
}

// byExhaustiveScan scores every article with the combined evidence formula.
func (r *Retriever) byExhaustiveScan(q *ranking.AnalyzedQuery, entities []string, corpus []string) []scored {
	sig := q.Signals()
	sig.Entities = entities
	if sig.MainTopic == "" && len(entities) > 0 {
		sig.MainTopic = entities[0]
	}
	return rank(scoreAll(corpus, func(c string) float64 { return r.scorer.Exhaustive(sig, c) }), r.weights.ExhaustiveCap)
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := list[:0:0]
	for _, s := range list {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
