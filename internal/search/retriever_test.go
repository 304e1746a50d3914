package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/ranking"
)

func corpus() []models.Article {
	return []models.Article{
		{Number: "1", Content: "La Guinée est une République unitaire, indivisible, laïque, démocratique et sociale."},
		{Number: "8", Content: "Tous les êtres humains sont égaux devant la loi. Les hommes et les femmes ont les mêmes droits."},
		{Number: "23", Content: "L'État a le devoir d'assurer l'éducation des enfants et l'enseignement gratuit dans les écoles publiques."},
		{Number: "44", Content: "Le mandat du Président de la République est de sept ans, renouvelable une fois."},
		{Number: "62", Content: "Les députés à l'Assemblée nationale sont élus au suffrage universel direct."},
	}
}

func numbers(res *Result) []string {
	out := make([]string, len(res.Articles))
	for i, a := range res.Articles {
		out[i] = a.Number
	}
	return out
}

func TestRetrieve_EntityTierFindsMandate(t *testing.T) {
	r := NewRetriever()
	res := r.Retrieve("Quelle est la durée du mandat présidentiel ?", corpus(), "")

	assert.Equal(t, TierEntity, res.Tier)
	require.NotEmpty(t, res.Articles)
	assert.Equal(t, "44", res.Articles[0].Number)
	assert.Equal(t, 2.0, res.TopScore())
	assert.Len(t, res.Scores, len(res.Articles))
}

func TestRetrieve_ArticleNumberTier(t *testing.T) {
	r := NewRetriever()
	res := r.Retrieve("que dit l'article 44", corpus(), "")

	assert.Equal(t, TierArticleNumber, res.Tier)
	assert.Equal(t, []string{"44"}, numbers(res))
}

func TestRetrieve_ArticleNumberWinsOverKeywords(t *testing.T) {
	r := NewRetriever()
	// The question is about the presidential mandate, but names article 8.
	res := r.Retrieve("Que dit l'article 8 sur le mandat du président ?", corpus(), "")

	assert.Equal(t, TierArticleNumber, res.Tier)
	assert.Equal(t, []string{"8"}, numbers(res))
}

func TestRetrieve_ArticleNumbersKeepCorpusOrder(t *testing.T) {
	r := NewRetriever()
	res := r.Retrieve("compare l'article 62 et l'article 1", corpus(), "")

	assert.Equal(t, TierArticleNumber, res.Tier)
	assert.Equal(t, []string{"1", "62"}, numbers(res))
}

func TestRetrieve_ExpandedTier(t *testing.T) {
	r := NewRetriever()
	res := r.Retrieve("et quelle est sa durée ?", corpus(), "")

	assert.Equal(t, TierExpanded, res.Tier)
	assert.Equal(t, []string{"44"}, numbers(res))
}

func TestRetrieve_ConversationContextLendsEntities(t *testing.T) {
	r := NewRetriever()
	res := r.Retrieve("et quelle est sa durée ?", corpus(), "Quel est le rôle du président ?")

	assert.Equal(t, TierEntity, res.Tier)
	assert.Equal(t, []string{"44"}, numbers(res))
}

func TestRetrieve_ThemeTier(t *testing.T) {
	articles := []models.Article{
		{Number: "1", Content: "Le territoire national est inaliénable."},
		{Number: "2", Content: "L'autorité de régulation est un organe indépendant."},
	}
	r := NewRetriever()
	res := r.Retrieve("quelle autorité régule cet organe ?", articles, "")

	assert.Equal(t, TierTheme, res.Tier)
	assert.Equal(t, []string{"2"}, numbers(res))
	assert.Equal(t, 2.0, res.TopScore())
}

func TestRetrieve_SemanticTier(t *testing.T) {
	r := NewRetriever()
	res := r.Retrieve("laïque et indivisible ?", corpus(), "")

	assert.Equal(t, TierSemantic, res.Tier)
	assert.Equal(t, []string{"1"}, numbers(res))
	assert.Equal(t, 2.0, res.TopScore())
}

func TestRetrieve_Miss(t *testing.T) {
	r := NewRetriever()
	res := r.Retrieve("Quelle est la recette du gâteau au chocolat ?", corpus(), "")

	assert.Equal(t, TierNone, res.Tier)
	assert.True(t, res.Empty())
	assert.NotNil(t, res.Articles)
	assert.NotNil(t, res.Scores)
	assert.NotNil(t, res.Query)
	assert.Equal(t, 0.0, res.TopScore())
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	r := NewRetriever()
	res := r.Retrieve("Quelle est la durée du mandat présidentiel ?", nil, "")
	assert.Equal(t, TierNone, res.Tier)
	assert.Empty(t, res.Articles)
}

func TestRetrieve_EntityTierCap(t *testing.T) {
	var articles []models.Article
	for i := 0; i < 8; i++ {
		articles = append(articles, models.Article{Number: string(rune('1' + i)), Content: "Le Président exerce le pouvoir exécutif."})
	}
	w := ranking.DefaultRetrievalWeights()
	w.EntityCap = 2
	r := NewRetriever(WithWeights(w))
	res := r.Retrieve("que fait le président ?", articles, "")

	assert.Equal(t, TierEntity, res.Tier)
	// equal scores keep corpus order
	assert.Equal(t, []string{"1", "2"}, numbers(res))
}

func TestRank_StableOnTies(t *testing.T) {
	got := rank([]float64{1, 2, 0, 1, 2}, 0)
	idx := make([]int, len(got))
	for i, s := range got {
		idx[i] = s.index
	}
	assert.Equal(t, []int{1, 4, 0, 3}, idx)

	assert.Len(t, rank([]float64{3, 2, 1}, 2), 2)
	assert.Empty(t, rank([]float64{0, 0}, 5))
}

func TestExhaustiveScan(t *testing.T) {
	r := NewRetriever()
	long := "Le président veille au respect de la Constitution. "
	for len(long) < 1200 {
		long += "Il assure le fonctionnement régulier des pouvoirs publics. "
	}
	lowered := []string{
		"le président est élu.",
		"aucun rapport.",
		long,
	}
	q := r.Analyze("rôle")
	hits := r.byExhaustiveScan(q, []string{"président"}, lowered)

	require.Len(t, hits, 2)
	// Both mention the borrowed entity (main topic bonus + entity point); the
	// longer article earns the full length bonus.
	assert.Equal(t, 2, hits[0].index)
	assert.InDelta(t, 4.0, hits[0].score, 1e-9)
	assert.Equal(t, 0, hits[1].index)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "none", TierNone.String())
	assert.Equal(t, "article_number", TierArticleNumber.String())
	assert.Equal(t, "exhaustive", TierExhaustive.String())
	assert.Equal(t, "unknown", Tier(42).String())
}
