package indexer

import "strings"

// MaxArticleKeywords bounds the keywords stored per article.
const MaxArticleKeywords = 10

// Article categories.
const (
	CategoryRights      = "droits_et_libertes"
	CategoryExecutive   = "pouvoir_executif"
	CategoryLegislative = "pouvoir_legislatif"
	CategoryJudicial    = "pouvoir_judiciaire"
	CategoryElections   = "elections"
	CategoryRevision    = "revision_constitutionnelle"
	CategoryGeneral     = "general"
)

var categoryRules = []struct {
	category string
	words    []string
}{
	{CategoryRights, []string{"droit", "liberté", "garantie"}},
	{CategoryExecutive, []string{"président", "gouvernement", "ministre"}},
	{CategoryLegislative, []string{"parlement", "assemblée", "député"}},
	{CategoryJudicial, []string{"tribunal", "cour", "justice"}},
	{CategoryElections, []string{"élection", "vote", "suffrage"}},
	{CategoryRevision, []string{"révision", "modification", "amendement"}},
}

var importantWords = []string{
	"droit", "liberté", "garantie", "président", "gouvernement", "parlement",
	"tribunal", "élection", "vote", "citoyen", "république", "constitution",
	"pouvoir", "institution", "responsabilité", "mandat", "session",
}

// Categorize assigns the first category whose words occur in content.
func Categorize(content string) string {
	lower := strings.ToLower(content)
	for _, r := range categoryRules {
		for _, w := range r.words {
			if strings.Contains(lower, w) {
				return r.category
			}
		}
	}
	return CategoryGeneral
}

// ExtractKeywords returns the important legal words present in content, in a fixed order.
func ExtractKeywords(content string) []string {
	lower := strings.ToLower(content)
	var out []string
	for _, w := range importantWords {
		if strings.Contains(lower, w) {
			out = append(out, w)
			if len(out) == MaxArticleKeywords {
				break
			}
		}
	}
	return out
}
