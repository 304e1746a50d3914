// Package e2e runs question scenarios against constitutions imported from real files.
package e2e

import "strings"

// CurrentConstitution is the answerable corpus. Article 44 is the only article
// about the presidential mandate.
const CurrentConstitution = `CONSTITUTION DE LA RÉPUBLIQUE DE GUINÉE
Adoptée par référendum le 22 mars 2020

PRÉAMBULE
Nous, peuple de Guinée, proclamons notre attachement aux principes de la démocratie et de l'État de droit.

TITRE PREMIER : DE L'ÉTAT ET DE LA SOUVERAINETÉ
Article 1 : La Guinée est une République unitaire, indivisible, laïque, démocratique et sociale.
Article 2 : La souveraineté nationale appartient au peuple qui l'exerce par ses représentants élus et par voie de référendum.

TITRE II : DES DROITS ET DEVOIRS FONDAMENTAUX
Article 8 : Tous les êtres humains sont égaux devant la loi. Les hommes et les femmes ont les mêmes droits.
Article 23 : L'État assure l'enseignement public gratuit et obligatoire jusqu'à seize ans.

TITRE IV : DU POUVOIR EXÉCUTIF
Article 44 : Le mandat du Président de la République est de sept ans, renouvelable une fois.

TITRE V : DU POUVOIR LÉGISLATIF
Article 62 : Les députés à l'Assemblée nationale sont élus au suffrage universel direct.
`

// FormerConstitution is imported and then deactivated; none of its articles may
// appear in an answer.
const FormerConstitution = `CONSTITUTION DE LA RÉPUBLIQUE DE GUINÉE
Promulguée le 7 mai 2010

TITRE III : DU PRÉSIDENT DE LA RÉPUBLIQUE
Article 44 : Le mandat du Président de la République est de cinq ans.
Article 45 : Nul ne peut exercer plus de deux mandats présidentiels.
`

// QuestionCase is a question and the article an answer must cite.
type QuestionCase struct {
	Question        string
	ExpectedArticle string
	Description     string
}

// Corpus holds the source texts and the retrieval cases asked against them.
type Corpus struct {
	Current   string
	Former    string
	TestCases []QuestionCase
}

// BuildCorpus returns the two constitutions and the retrieval cases.
func BuildCorpus() *Corpus {
	return &Corpus{
		Current: CurrentConstitution,
		Former:  FormerConstitution,
		TestCases: []QuestionCase{
			{"Quelle est la durée du mandat présidentiel ?", "44", "mandate by keyword"},
			{"que dit l'article 44", "44", "explicit article number"},
			{"Article 62", "62", "bare article reference"},
			{"Comment sont élus les députés ?", "62", "deputies election"},
			{"Qu'est-ce qui est dit sur l'égalité entre les hommes et les femmes ?", "8", "equality"},
			{"À qui appartient la souveraineté nationale ?", "2", "sovereignty"},
		},
	}
}

// ArticleNumbers lists the article numbers declared in text, in order.
func ArticleNumbers(text string) []string {
	var numbers []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Article ") {
			continue
		}
		rest := strings.TrimPrefix(line, "Article ")
		if i := strings.Index(rest, " "); i > 0 {
			numbers = append(numbers, rest[:i])
		}
	}
	return numbers
}
