package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/konsti/internal/models"
)

func TestBuildContext_Format(t *testing.T) {
	articles := []models.Article{
		{Number: "44", Content: "Le mandat du Président est de sept ans."},
		{Number: "45", Content: "Le Président est le chef de l'État."},
	}
	got := BuildContext(articles, 4000)
	want := "Article 44: Le mandat du Président est de sept ans.\n\nArticle 45: Le Président est le chef de l'État."
	assert.Equal(t, want, got)
}

func TestBuildContext_TruncatesLongArticles(t *testing.T) {
	long := strings.Repeat("é", 1000)
	got := BuildContext([]models.Article{{Number: "1", Content: long}}, 4000)

	assert.True(t, strings.HasPrefix(got, "Article 1: "))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, len("Article 1: ")+DefaultArticleChars+len("..."), utf8.RuneCountInString(got))
}

func TestBuildContext_StopsBeforeBudget(t *testing.T) {
	var articles []models.Article
	for i := 0; i < 10; i++ {
		articles = append(articles, models.Article{Number: string(rune('0' + i)), Content: strings.Repeat("x", 500)})
	}
	// each block is "Article N: " (11) + 500 characters
	got := BuildContext(articles, 1100)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), 1100)
	blocks := strings.Split(got, "\n\n")
	assert.Len(t, blocks, 2)
	for _, b := range blocks {
		assert.Len(t, b, 511, "blocks are never cut")
	}
}

func TestBuildContext_NeverExceedsBudget(t *testing.T) {
	builder := NewContextBuilder(0, 0)
	assert.Equal(t, DefaultContextChars, builder.MaxChars)
	assert.Equal(t, DefaultArticleChars, builder.ArticleMaxChars)

	var articles []models.Article
	for i := 0; i < 40; i++ {
		articles = append(articles, models.Article{Number: "7", Content: strings.Repeat("mandat ", 30+i*7)})
	}
	for _, budget := range []int{50, 300, 1000, 4000} {
		got := NewContextBuilder(budget, 200).Build(articles)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), budget)
		if got == "" {
			continue
		}
		for _, b := range strings.Split(got, "\n\n") {
			assert.True(t, strings.HasPrefix(b, "Article 7: "))
		}
	}
}

func TestBuildContext_Empty(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil, 4000))
}
