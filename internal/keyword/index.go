// Package keyword indexes constitution articles for full-text search and spelling suggestions.
package keyword

import (
	"context"

	"github.com/hyperjump/konsti/internal/models"
)

// ArticleIndex is the full-text index over articles of every stored constitution.
type ArticleIndex interface {
	// IndexArticles replaces the indexed articles of one constitution.
	IndexArticles(ctx context.Context, constitutionID string, articles []models.Article) error
	DeleteConstitution(ctx context.Context, constitutionID string) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Hit, error)
	DocCount() (uint64, error)
	Close() error
}

// SearchOptions optional parameters for article search. Nil means exact term matching.
type SearchOptions struct {
	// FuzzyEnabled tolerates typos in query terms.
	FuzzyEnabled bool
	// Fuzziness is the maximum edit distance for fuzzy matching (1 or 2). Default 1.
	Fuzziness int
}

// Hit is a single article search hit.
type Hit struct {
	ConstitutionID string  `json:"constitution_id"`
	Number         string  `json:"number"`
	Score          float64 `json:"score"`
}

// TermDictionary provides access to the indexed vocabulary for spell checking.
type TermDictionary interface {
	// GetAllTerms returns all unique terms in the index.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the document frequency for a term.
	GetTermFrequency(term string) (int, error)
}
