package search

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/pkg/utils"
)

const (
	// DefaultContextChars bounds the whole prompt context.
	DefaultContextChars = 4000
	// DefaultArticleChars bounds the content of one article block.
	DefaultArticleChars = 800

	blockSeparator = "\n\n"
)

// ContextBuilder joins retrieved articles into a bounded prompt context.
type ContextBuilder struct {
	MaxChars        int
	ArticleMaxChars int
}

// NewContextBuilder creates a ContextBuilder; non-positive limits take the defaults.
func NewContextBuilder(maxChars, articleMaxChars int) *ContextBuilder {
	if maxChars <= 0 {
		maxChars = DefaultContextChars
	}
	if articleMaxChars <= 0 {
		articleMaxChars = DefaultArticleChars
	}
	return &ContextBuilder{MaxChars: maxChars, ArticleMaxChars: articleMaxChars}
}

// Build formats each article as "Article {n}: {content}" and appends blocks in order
// until the next one would push the total past MaxChars. Blocks are never cut, so the
// result is at most MaxChars characters long.
func (b *ContextBuilder) Build(articles []models.Article) string {
	var out strings.Builder
	total := 0
	for _, a := range articles {
		block := FormatArticle(a, b.ArticleMaxChars)
		size := utf8.RuneCountInString(block)
		if total > 0 {
			size += len(blockSeparator)
		}
		if total+size > b.MaxChars {
			break
		}
		if total > 0 {
			out.WriteString(blockSeparator)
		}
		out.WriteString(block)
		total += size
	}
	return out.String()
}

// BuildContext builds a context of at most maxChars characters with the default article limit.
func BuildContext(articles []models.Article, maxChars int) string {
	return NewContextBuilder(maxChars, DefaultArticleChars).Build(articles)
}

// FormatArticle renders one article block, truncating its content to maxContent characters.
func FormatArticle(a models.Article, maxContent int) string {
	return a.Reference() + ": " + utils.Truncate(a.Content, maxContent)
}
