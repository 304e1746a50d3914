package assistant

import (
	"fmt"
	"strings"

	"github.com/hyperjump/konsti/internal/ranking"
)

// reformulation groups are tried in order; the first whose trigger appears in the
// question supplies the fallback message and suggestions.
var reformulations = []struct {
	triggers    []string
	message     string
	suggestions []string
}{
	{
		triggers: []string{"mandat", "mandats", "président", "présidence", "élection", "élections"},
		message:  "Je peux vous aider avec les questions sur le pouvoir exécutif et la présidence.",
		suggestions: []string{
			"Quel est le nombre de mandats présidentiels autorisés ?",
			"Quelle est la durée d'un mandat présidentiel ?",
			"Quelles sont les conditions de réélection du président ?",
		},
	},
	{
		triggers: []string{"droits", "droit", "libertés", "liberté", "citoyens", "protection"},
		message:  "Je peux vous aider avec les questions sur les droits et libertés.",
		suggestions: []string{
			"Quels sont les droits fondamentaux garantis ?",
			"Comment sont protégés les droits des citoyens ?",
			"Quelles sont les libertés individuelles reconnues ?",
		},
	},
	{
		triggers: []string{"parlement", "assemblée", "sénat", "législatif", "député", "députés"},
		message:  "Je peux vous aider avec les questions sur le pouvoir législatif.",
		suggestions: []string{
			"Comment fonctionne le parlement ?",
			"Comment sont élus les députés ?",
			"Quel est le rôle du pouvoir législatif ?",
		},
	},
	{
		triggers: []string{"constitution", "article", "loi"},
		message:  "Je peux vous aider avec les questions sur la constitution.",
		suggestions: []string{
			"Quels sont les principes fondamentaux de la constitution ?",
			"Comment est organisée la constitution ?",
			"Comment peut-on réviser la constitution ?",
		},
	},
	{
		triggers: []string{"nombre", "combien", "durée", "limite"},
		message:  "Pouvez-vous préciser votre question avec plus de contexte ?",
		suggestions: []string{
			"Souhaitez-vous des informations sur les mandats ?",
			"Voulez-vous connaître les durées ou limites ?",
		},
	},
}

var defaultReformulation = struct {
	message     string
	suggestions []string
}{
	message: "Essayez une de ces questions ou reformulez avec plus de détails.",
	suggestions: []string{
		"Quels sont les droits fondamentaux garantis ?",
		"Comment est organisé le pouvoir exécutif ?",
		"Quelles sont les conditions d'élection du président ?",
		"Comment fonctionne le parlement ?",
	},
}

// reformulate returns the fallback message and suggestions for a question no
// article matched.
func reformulate(q *ranking.AnalyzedQuery) (string, []string) {
	words := make(map[string]bool, len(q.Words))
	for _, w := range q.Words {
		words[w] = true
		// l'article, d'élection
		if i := strings.LastIndex(w, "'"); i >= 0 {
			words[w[i+1:]] = true
		}
	}
	for _, r := range reformulations {
		for _, t := range r.triggers {
			if words[t] {
				return r.message, append([]string(nil), r.suggestions...)
			}
		}
	}
	return defaultReformulation.message, append([]string(nil), defaultReformulation.suggestions...)
}

func fallbackText(question, message string) string {
	return fmt.Sprintf("Je ne trouve pas d'informations spécifiques pour « %s ». %s", question, message)
}

func didYouMean(corrected string) string {
	return fmt.Sprintf("Vouliez-vous dire : « %s » ?", corrected)
}

// followUps are offered after an answer, by question kind.
var followUps = map[Kind][]string{
	KindConstitutional: {
		"Quels sont les droits fondamentaux garantis ?",
		"Comment est organisé le pouvoir exécutif ?",
		"Quelles sont les conditions d'élection du président ?",
		"Comment fonctionne le parlement ?",
	},
	KindRights: {
		"Quels sont les droits des citoyens ?",
		"Comment sont protégées les libertés ?",
		"Quelles sont les garanties constitutionnelles ?",
		"Comment fonctionne la justice ?",
	},
	KindInstitutions: {
		"Comment est organisé le gouvernement ?",
		"Quel est le rôle du président ?",
		"Comment fonctionne le système électoral ?",
		"Quelles sont les compétences du parlement ?",
	},
	KindGeneral: {
		"Posez-moi une question sur la constitution",
		"Que voulez-vous savoir sur les droits fondamentaux ?",
		"Souhaitez-vous des informations sur le pouvoir exécutif ?",
	},
}

func followUpsFor(k Kind) []string {
	if k == KindSpecific {
		k = KindConstitutional
	}
	list, ok := followUps[k]
	if !ok {
		list = followUps[KindGeneral]
	}
	return append([]string(nil), list...)
}

var correctionFollowUps = []string{
	"Pouvez-vous me donner plus de détails sur ce qui était incorrect ?",
	"Voulez-vous que je vérifie un aspect spécifique ?",
	"Avez-vous une source différente à me proposer ?",
}

var conversationSuggestions = []string{
	"Peux-tu m'expliquer les principes fondamentaux de cette constitution ?",
	"Quels sont les droits et devoirs des citoyens ?",
	"Comment fonctionne le pouvoir exécutif ?",
	"Quelle est la durée du mandat présidentiel ?",
	"Comment sont organisées les élections ?",
	"Quels sont les pouvoirs du Parlement ?",
	"Comment fonctionne le système judiciaire ?",
	"Quels sont les mécanismes de protection des droits ?",
	"Comment peut-on modifier cette constitution ?",
	"Quels sont les principes de la séparation des pouvoirs ?",
}

const welcomeTemplate = `Bienvenue !

Je suis Konsti, votre assistant spécialisé dans l'analyse de la constitution : %s

Comment puis-je vous aider ?
• Posez des questions sur le contenu de la constitution
• Demandez des explications sur les principes constitutionnels
• Interrogez-moi sur les droits et devoirs des citoyens
• Explorez le fonctionnement des institutions

Exemples de questions :
• « Que dit la constitution sur les droits des citoyens ? »
• « Comment fonctionne le pouvoir judiciaire ? »
• « Quelle est la durée du mandat présidentiel ? »`
