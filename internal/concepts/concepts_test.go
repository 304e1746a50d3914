package concepts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynonymsOf(t *testing.T) {
	syn := SynonymsOf("Mandat")
	require.NotNil(t, syn)
	assert.Contains(t, syn, "durée")
	assert.Contains(t, syn, "renouvellement")
	assert.Nil(t, SynonymsOf("poulet"))
}

func TestSynonymsOf_ReturnsCopy(t *testing.T) {
	syn := SynonymsOf("mandat")
	syn[0] = "mutated"
	assert.Equal(t, "mandat", SynonymsOf("mandat")[0])
}

func TestThemeOf(t *testing.T) {
	assert.ElementsMatch(t, []string{"droits_fondamentaux", "sécurité_ordre"}, ThemeOf("protection"))
	assert.Empty(t, ThemeOf("poulet"))
}

func TestDetectEntities(t *testing.T) {
	got := DetectEntities("quelle est la durée du mandat présidentiel ?")
	assert.Equal(t, []string{"président"}, got)

	got = DetectEntities("quels sont les droits des enfants")
	assert.Equal(t, []string{"enfants", "droits"}, got)
}

func TestEntityKeywords(t *testing.T) {
	assert.Equal(t, []string{"enfant", "jeune", "mineur", "scolarité"}, EntityKeywords("enfants"))
	assert.Nil(t, EntityKeywords("inconnu"))
}

func TestContextKeywords(t *testing.T) {
	got := ContextKeywords("le président et les droits")
	assert.Equal(t, []string{"garantie", "protection", "liberté", "pouvoir", "mandat", "élection"}, got)
	assert.Empty(t, ContextKeywords("recette du poulet"))
}

func TestExtendedKeywords(t *testing.T) {
	kws, fired := ExtendedKeywords("durée du mandat")
	assert.True(t, fired)
	assert.Contains(t, kws, "sept ans")

	kws, fired = ExtendedKeywords("rien de spécial")
	assert.False(t, fired)
	assert.Equal(t, []string{"droit", "garantie", "protection", "responsabilité", "pouvoir", "institution"}, kws)
}

func TestBestTheme(t *testing.T) {
	th, ok := BestTheme("la liberté et la garantie des droits")
	require.True(t, ok)
	assert.Equal(t, "droits_fondamentaux", th.Name)

	_, ok = BestTheme("recette du poulet")
	assert.False(t, ok)
}

func TestConcepts(t *testing.T) {
	got := Concepts("comment réviser la constitution")
	assert.Contains(t, got, "constitution")
	assert.Contains(t, got, "révision")
}
