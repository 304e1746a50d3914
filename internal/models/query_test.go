package models

import (
	"strings"
	"testing"
	"time"
)

func TestChatRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *ChatRequest
		wantErr bool
	}{
		{"empty question", &ChatRequest{Question: ""}, true},
		{"blank question", &ChatRequest{Question: "   "}, true},
		{"valid question", &ChatRequest{Question: "que dit l'article 44"}, false},
		{"too long", &ChatRequest{Question: strings.Repeat("a", MaxQuestionLength+1)}, true},
		{"with session", &ChatRequest{Question: "merci", SessionID: "abc"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestArticleSearch_Validate(t *testing.T) {
	q := &ArticleSearch{Query: " mandat "}
	if err := q.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if q.Query != "mandat" {
		t.Errorf("query not trimmed: %q", q.Query)
	}
	if q.Limit != 10 {
		t.Errorf("expected default limit 10, got %d", q.Limit)
	}
	if err := (&ArticleSearch{Query: "x", Limit: 500}).Validate(); err == nil {
		t.Error("expected error for limit above 100")
	}
}

func TestConstitutionInput_Validate(t *testing.T) {
	in := ConstitutionInput{Filename: "c.pdf", Title: "Constitution", Status: "bogus"}
	if err := Validate(&in); err == nil {
		t.Error("expected error for unknown status")
	}
	in.Status = StatusActive
	if err := Validate(&in); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAnswerConstructors(t *testing.T) {
	if a := NewCannedAnswer("Bonjour"); a.Confidence != 1.0 || a.Kind != AnswerCanned {
		t.Errorf("canned answer = %+v", a)
	}
	if a := NewRetrievedAnswer("x", 1.7, nil, "entity"); a.Confidence != 1.0 || a.Sources == nil {
		t.Errorf("confidence must be clamped and sources non-nil: %+v", a)
	}
	e := NewErrorAnswer(ErrorTimeout, "trop long")
	if e.Confidence != 0 || e.ErrorKind != ErrorTimeout || e.Suggestions == nil {
		t.Errorf("error answer = %+v", e)
	}
	c := NewCachedAnswer(&CacheEntry{Answer: "a", Confidence: 0.6, ArticleReferences: []string{"Article 44"}})
	if c.Kind != AnswerCached || c.Confidence != 0.6 || len(c.References()) != 1 {
		t.Errorf("cached answer = %+v", c)
	}
}

func TestCacheEntry_Expired(t *testing.T) {
	now := time.Now()
	e := &CacheEntry{ExpiresAt: now.Add(time.Minute)}
	if e.Expired(now) {
		t.Error("entry should be live before expiresAt")
	}
	if !e.Expired(now.Add(time.Minute)) {
		t.Error("entry must be expired at expiresAt")
	}
}
