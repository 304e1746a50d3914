package session

import (
	"strings"
	"unicode"
)

// CorrectionType classifies how a user rejected the previous answer.
type CorrectionType string

const (
	CorrectionNone          CorrectionType = ""
	CorrectionFactual       CorrectionType = "factual"
	CorrectionClarification CorrectionType = "clarification"
	CorrectionRejection     CorrectionType = "rejection"
)

var (
	// matched anywhere in the normalized question
	factualMarkers       = []string{"c'est faux", "faux", "incorrect", "erreur", "corrige", "inexact"}
	clarificationMarkers = []string{"ce n'est pas ça", "ce n'est pas ca", "pas ça", "pas ca", "tu te trompes", "vous vous trompez"}
	// matched as whole words only
	rejectionWords = []string{"non"}
)

// IsCorrection reports whether query tells the assistant its last answer was wrong.
func IsCorrection(query string) bool {
	return ClassifyCorrection(query) != CorrectionNone
}

// ClassifyCorrection returns the kind of correction in query, or CorrectionNone.
func ClassifyCorrection(query string) CorrectionType {
	q := normalizeQuery(query)
	if q == "" {
		return CorrectionNone
	}
	if containsAny(q, factualMarkers) {
		return CorrectionFactual
	}
	if containsAny(q, clarificationMarkers) {
		return CorrectionClarification
	}
	words := strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, w := range words {
		for _, rw := range rejectionWords {
			if w == rw {
				return CorrectionRejection
			}
		}
	}
	return CorrectionNone
}

// Describe returns the French phrase used in correction prompts.
func (c CorrectionType) Describe() string {
	switch c {
	case CorrectionFactual:
		return "l'utilisateur signale une erreur factuelle"
	case CorrectionClarification:
		return "l'utilisateur indique que la réponse ne correspond pas à sa question"
	case CorrectionRejection:
		return "l'utilisateur rejette la réponse précédente"
	default:
		return "aucune correction"
	}
}

func normalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	return strings.ReplaceAll(q, "’", "'")
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
