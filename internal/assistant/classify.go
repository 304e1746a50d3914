package assistant

import (
	"strings"
	"unicode"

	"github.com/hyperjump/konsti/internal/ranking"
)

// Kind is the coarse intent of a question.
type Kind int

const (
	KindGeneral Kind = iota
	KindIdentity
	KindPoliteness
	KindSpecific
	KindRights
	KindInstitutions
	KindConstitutional
)

// String returns the log name of the kind.
func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindPoliteness:
		return "politeness"
	case KindSpecific:
		return "specific"
	case KindRights:
		return "rights"
	case KindInstitutions:
		return "institutions"
	case KindConstitutional:
		return "constitutional"
	default:
		return "general"
	}
}

// Canned reports whether the kind is answered without retrieval.
func (k Kind) Canned() bool {
	return k == KindIdentity || k == KindPoliteness
}

// Keyword lists, checked in this order. A keyword with a space, apostrophe or
// hyphen matches as a substring; a single word must match a whole token.
var kindRules = []struct {
	kind     Kind
	keywords []string
}{
	{KindSpecific, []string{"nombre de mandat", "combien de mandat", "durée", "élection", "élections", "vote", "référendum", "procédure"}},
	{KindIdentity, []string{"qui es-tu", "qui es tu", "ton nom", "votre nom", "qui êtes-vous", "qui êtes vous", "comment tu t'appelles", "comment vous appelez-vous"}},
	{KindPoliteness, []string{"merci", "bonjour", "bonsoir", "salut", "hello", "hi", "au revoir", "bye", "s'il vous plaît"}},
	{KindRights, []string{"droits", "libertés", "garanties", "protection", "citoyens", "individuels"}},
	{KindInstitutions, []string{"parlement", "sénat", "assemblée", "conseil", "tribunal", "cour"}},
	{KindConstitutional, []string{"constitution", "article", "loi", "droit", "pouvoir", "président", "gouvernement", "république"}},
}

// Classify returns the intent of a question. Politeness wrapped around a real
// question ("merci, et l'article 4 ?") is not canned.
func Classify(q *ranking.AnalyzedQuery) Kind {
	tokens := tokenize(q.Lower)
	for _, r := range kindRules {
		if !matchesAny(q.Lower, tokens, r.keywords) {
			continue
		}
		if r.kind == KindPoliteness && (len(q.ArticleNumbers) > 0 || q.HasSignal()) {
			return KindConstitutional
		}
		return r.kind
	}
	return KindGeneral
}

type politeness int

const (
	greeting politeness = iota
	thanks
	farewell
)

func politenessOf(lower string) politeness {
	tokens := tokenize(lower)
	switch {
	case matchesAny(lower, tokens, []string{"merci"}):
		return thanks
	case matchesAny(lower, tokens, []string{"au revoir", "bye"}):
		return farewell
	default:
		return greeting
	}
}

func tokenize(lower string) map[string]bool {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func matchesAny(lower string, tokens map[string]bool, keywords []string) bool {
	for _, kw := range keywords {
		if strings.ContainsAny(kw, " '-") {
			if strings.Contains(lower, kw) {
				return true
			}
			continue
		}
		if tokens[kw] {
			return true
		}
	}
	return false
}
