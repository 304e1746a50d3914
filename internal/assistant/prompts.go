package assistant

import (
	"fmt"
	"strings"

	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/session"
)

// Fixed texts. They never go through the generator.
const (
	identityText = "Je suis Konsti, votre assistant spécialisé dans l'analyse des constitutions de la Guinée. " +
		"Je peux vous aider à trouver des informations dans les documents constitutionnels et répondre à vos questions sur le droit constitutionnel."
	greetingText = "Bonjour ! Comment puis-je vous aider avec la constitution de la Guinée ?"
	thanksText   = "De rien ! N'hésitez pas si vous avez d'autres questions sur la constitution. Je suis là pour vous aider."
	farewellText = "Au revoir ! Revenez quand vous voulez pour explorer la constitution."

	timeoutText       = "Désolé, la recherche prend trop de temps. Essayez une question plus spécifique."
	unavailableText   = "Désolé, le système IA est temporairement indisponible. Veuillez réessayer plus tard."
	genericErrorText  = "Désolé, une erreur s'est produite lors de la génération de la réponse : %s"
	emptyQuestionText = "Posez-moi une question sur la constitution."
)

const systemPrompt = `Tu es Konsti, assistant spécialisé dans l'analyse des constitutions de la Guinée.

INSTRUCTIONS:
1. Réponds UNIQUEMENT à partir des articles fournis dans le contexte.
2. Cite les numéros des articles sur lesquels tu t'appuies.
3. Si l'information ne figure pas dans le contexte, dis-le clairement.
4. Réponds en français, de façon précise et concise.`

const correctionSystemPrompt = `Tu es Konsti, assistant spécialisé dans la constitution de la Guinée.
L'utilisateur indique que ta réponse précédente est incorrecte.

INSTRUCTIONS:
1. Relis ta réponse précédente et les articles fournis.
2. Comprends ce que l'utilisateur veut corriger.
3. Reformule une réponse corrigée et vérifiée en citant les articles.
4. Reconnais ton erreur si tu en as fait une.
5. Si tu n'es pas sûr, demande une clarification.`

func questionPrompt(articleContext, question string, history []models.ConversationTurn) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("CONVERSATION PRÉCÉDENTE:\n")
		writeHistory(&b, history)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "CONTEXTE:\n%s\n\nQUESTION: %s\n\nRÉPONSE:", articleContext, question)
	return b.String()
}

func correctionPrompt(prevQuestion, prevAnswer string, kind session.CorrectionType, correction, articleContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DERNIÈRE QUESTION: %s\n", prevQuestion)
	fmt.Fprintf(&b, "TA DERNIÈRE RÉPONSE: %s\n", prevAnswer)
	fmt.Fprintf(&b, "TYPE DE CORRECTION: %s\n", kind.Describe())
	fmt.Fprintf(&b, "CORRECTION DE L'UTILISATEUR: %q\n", correction)
	if articleContext != "" {
		fmt.Fprintf(&b, "\nCONTEXTE:\n%s\n", articleContext)
	}
	b.WriteString("\nRÉPONSE CORRIGÉE:")
	return b.String()
}

func writeHistory(b *strings.Builder, turns []models.ConversationTurn) {
	for _, t := range turns {
		speaker := "Utilisateur"
		if t.Role == models.RoleAssistant {
			speaker = "Assistant"
		}
		fmt.Fprintf(b, "%s: %s\n", speaker, t.Content)
	}
}
