// Package ranking analyzes French constitutional questions and scores article text against them.
package ranking

// QuestionType is the grammatical shape of a question.
type QuestionType int

const (
	// QuestionGeneral is any question without a recognized interrogative.
	QuestionGeneral QuestionType = iota
	// QuestionProcedure asks how something is done ("comment").
	QuestionProcedure
	// QuestionTiming asks when ("quand").
	QuestionTiming
	// QuestionActor asks who ("qui").
	QuestionActor
	// QuestionDefinition asks what something is ("qu'est-ce", "définition").
	QuestionDefinition
	// QuestionReason asks why ("pourquoi").
	QuestionReason
	// QuestionList asks for an enumeration ("quels", "quelles").
	QuestionList
)

// String returns a string representation of the question type.
func (q QuestionType) String() string {
	switch q {
	case QuestionGeneral:
		return "general"
	case QuestionProcedure:
		return "procedure"
	case QuestionTiming:
		return "timing"
	case QuestionActor:
		return "actor"
	case QuestionDefinition:
		return "definition"
	case QuestionReason:
		return "reason"
	case QuestionList:
		return "list"
	default:
		return "unknown"
	}
}

// AnalyzedQuery holds the parsed form of a question.
type AnalyzedQuery struct {
	// Original is the question as received.
	Original string
	// Lower is the lowercased, trimmed question used for substring tests.
	Lower string
	// Words are the normalized tokens of the question.
	Words []string
	// LongWords are the tokens longer than the configured minimum, stopwords removed.
	LongWords []string
	// ArticleNumbers are integer tokens that plausibly name an article.
	ArticleNumbers []string
	// Entities are the named subjects detected in the question, in table order.
	Entities []string
	// MainTopic is the first detected entity, or empty.
	MainTopic string
	// ContextKeywords are keywords implied by the detected subjects.
	ContextKeywords []string
	// Concepts are synonym-table concepts present in the question.
	Concepts []string
	// Type is the grammatical shape of the question.
	Type QuestionType
}

// HasSignal reports whether the question carries any legal vocabulary.
func (q *AnalyzedQuery) HasSignal() bool {
	return len(q.Entities) > 0 || len(q.Concepts) > 0 || len(q.ContextKeywords) > 0
}

// Signals are the question features an article is scored against.
type Signals struct {
	Words     []string
	MainTopic string
	Entities  []string
	Keywords  []string
}

// Signals returns the scoring features of the question.
func (q *AnalyzedQuery) Signals() Signals {
	return Signals{
		Words:     q.LongWords,
		MainTopic: q.MainTopic,
		Entities:  q.Entities,
		Keywords:  q.ContextKeywords,
	}
}
