package llm

import (
	"context"
	"strings"
	"sync"
	"time"
)

// StaticGenerator answers without a network call. With Func set it delegates to it;
// otherwise it returns Text, or echoes the user prompt when Text is empty. Err and
// Delay script failures and slow calls.
type StaticGenerator struct {
	Text  string
	Err   error
	Delay time.Duration
	Func  func(Prompt) (string, error)

	mu      sync.Mutex
	calls   int
	prompts []Prompt
}

// NewStaticGenerator returns a generator that always answers text.
func NewStaticGenerator(text string) *StaticGenerator {
	return &StaticGenerator{Text: text}
}

// Complete records the prompt, waits Delay unless ctx ends first, then answers.
func (s *StaticGenerator) Complete(ctx context.Context, p Prompt) (string, error) {
	s.mu.Lock()
	s.calls++
	s.prompts = append(s.prompts, p)
	s.mu.Unlock()

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch {
	case s.Func != nil:
		return s.Func(p)
	case s.Err != nil:
		return "", s.Err
	case s.Text != "":
		return s.Text, nil
	default:
		return strings.TrimSpace(p.User), nil
	}
}

// Calls returns how many times Complete ran.
func (s *StaticGenerator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// LastPrompt returns the most recent prompt, if any.
func (s *StaticGenerator) LastPrompt() (Prompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return Prompt{}, false
	}
	return s.prompts[len(s.prompts)-1], true
}
