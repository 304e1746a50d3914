package models

import "time"

// AnswerKind tags which path produced an Answer.
type AnswerKind string

const (
	AnswerCanned    AnswerKind = "canned"
	AnswerCached    AnswerKind = "cached"
	AnswerRetrieved AnswerKind = "retrieved"
	AnswerFallback  AnswerKind = "fallback"
	AnswerError     AnswerKind = "error"
)

// ErrorKind classifies generator failures.
type ErrorKind string

const (
	ErrorTimeout     ErrorKind = "timeout"
	ErrorQuotaOrAuth ErrorKind = "quota_or_auth"
	ErrorGeneric     ErrorKind = "generic"
)

// Source is an article cited by an answer.
type Source struct {
	ConstitutionID string  `json:"constitution_id,omitempty"`
	Article        string  `json:"article"`
	Excerpt        string  `json:"excerpt,omitempty"`
	Score          float64 `json:"score"`
}

// SessionInfo describes the conversation an answer belongs to.
type SessionInfo struct {
	Key          string `json:"key"`
	HistoryTurns int    `json:"history_turns"`
}

// Answer is the single response shape returned by the assistant.
// Every kind carries Text, Confidence, Sources and Suggestions.
type Answer struct {
	Kind         AnswerKind  `json:"kind"`
	Text         string      `json:"text"`
	Confidence   float64     `json:"confidence"`
	Sources      []Source    `json:"sources"`
	Suggestions  []string    `json:"suggestions"`
	Tier         string      `json:"tier,omitempty"`
	ErrorKind    ErrorKind   `json:"error_kind,omitempty"`
	IsCorrection bool        `json:"is_correction,omitempty"`
	Session      SessionInfo `json:"session"`
	SearchTime   int64       `json:"search_time_ms"`
}

func newAnswer(kind AnswerKind, text string, confidence float64) *Answer {
	return &Answer{
		Kind:        kind,
		Text:        text,
		Confidence:  clampConfidence(confidence),
		Sources:     []Source{},
		Suggestions: []string{},
	}
}

// NewCannedAnswer is a fixed answer that needs no retrieval.
func NewCannedAnswer(text string) *Answer {
	return newAnswer(AnswerCanned, text, 1.0)
}

// NewCachedAnswer rebuilds an answer from a cache entry.
func NewCachedAnswer(e *CacheEntry) *Answer {
	a := newAnswer(AnswerCached, e.Answer, e.Confidence)
	for _, ref := range e.ArticleReferences {
		a.Sources = append(a.Sources, Source{Article: ref})
	}
	return a
}

// NewRetrievedAnswer is a generated answer backed by retrieved articles.
func NewRetrievedAnswer(text string, confidence float64, sources []Source, tier string) *Answer {
	a := newAnswer(AnswerRetrieved, text, confidence)
	if sources != nil {
		a.Sources = sources
	}
	a.Tier = tier
	return a
}

// NewFallbackAnswer is returned when no article matched.
func NewFallbackAnswer(text string, confidence float64, suggestions []string) *Answer {
	a := newAnswer(AnswerFallback, text, confidence)
	if suggestions != nil {
		a.Suggestions = suggestions
	}
	return a
}

// NewErrorAnswer is returned when the generator failed.
func NewErrorAnswer(kind ErrorKind, text string) *Answer {
	a := newAnswer(AnswerError, text, 0)
	a.ErrorKind = kind
	return a
}

// References returns the cited article references in order.
func (a *Answer) References() []string {
	refs := make([]string, 0, len(a.Sources))
	for _, s := range a.Sources {
		refs = append(refs, s.Article)
	}
	return refs
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// CacheEntry is a stored answer keyed by the fingerprint of its question.
type CacheEntry struct {
	QuestionFingerprint string    `json:"questionFingerprint"`
	Question            string    `json:"question"`
	Answer              string    `json:"answer"`
	ArticleReferences   []string  `json:"articleReferences"`
	Confidence          float64   `json:"confidence"`
	HitCount            int       `json:"hitCount"`
	CreatedAt           time.Time `json:"createdAt"`
	LastUsed            time.Time `json:"lastUsed"`
	ExpiresAt           time.Time `json:"expiresAt"`
}

// Expired reports whether the entry is no longer servable at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
