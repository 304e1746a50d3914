package models

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message of a session history.
// Timestamp is unix seconds.
type ConversationTurn struct {
	Role      Role    `json:"role"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

// MaxQuestionLength bounds the size of a chat question.
const MaxQuestionLength = 2000

// ChatRequest is a question sent to the assistant.
type ChatRequest struct {
	Question  string `json:"question" validate:"required,max=2000"`
	UserID    string `json:"user_id,omitempty" validate:"max=128"`
	SessionID string `json:"session_id,omitempty" validate:"max=128"`
}

// ArticleSearch is a full-text search over indexed articles.
type ArticleSearch struct {
	Query string `json:"query" validate:"required,max=500"`
	Limit int    `json:"limit,omitempty" validate:"gte=0,lte=100"`
	Fuzzy bool   `json:"fuzzy,omitempty"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks struct tags on a request body and returns a readable error.
func Validate(v interface{}) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return fmt.Errorf("invalid request: %s", strings.Join(msgs, ", "))
	}
	return fmt.Errorf("invalid request: %w", err)
}

// Validate trims the question and checks limits.
func (r *ChatRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	return Validate(r)
}

// Validate normalizes the limit and checks the query.
func (q *ArticleSearch) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if err := Validate(q); err != nil {
		return err
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	return nil
}
