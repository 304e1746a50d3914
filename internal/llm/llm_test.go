package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/konsti/internal/config"
	"github.com/hyperjump/konsti/internal/models"
)

func TestStaticGenerator(t *testing.T) {
	ctx := context.Background()

	g := NewStaticGenerator("Le mandat dure cinq ans.")
	out, err := g.Complete(ctx, Prompt{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "Le mandat dure cinq ans.", out)
	assert.Equal(t, 1, g.Calls())
	last, ok := g.LastPrompt()
	require.True(t, ok)
	assert.Equal(t, "u", last.User)

	echo := &StaticGenerator{}
	out, err = echo.Complete(ctx, Prompt{User: "  Article 44: texte  "})
	require.NoError(t, err)
	assert.Equal(t, "Article 44: texte", out)

	boom := &StaticGenerator{Err: errors.New("boom")}
	_, err = boom.Complete(ctx, Prompt{})
	assert.EqualError(t, err, "boom")

	fn := &StaticGenerator{Func: func(p Prompt) (string, error) { return strings.ToUpper(p.User), nil }}
	out, err = fn.Complete(ctx, Prompt{User: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "ABC", out)
}

func TestStaticGenerator_DelayHonorsDeadline(t *testing.T) {
	g := &StaticGenerator{Text: "trop tard", Delay: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Complete(ctx, Prompt{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, models.ErrorTimeout, Classify(err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorKind
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, models.ErrorTimeout},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), models.ErrorTimeout},
		{"quota text", errors.New("You exceeded your current quota"), models.ErrorQuotaOrAuth},
		{"insufficient_quota", errors.New("code: insufficient_quota"), models.ErrorQuotaOrAuth},
		{"429 text", errors.New("status 429"), models.ErrorQuotaOrAuth},
		{"billing", errors.New("Billing hard limit reached"), models.ErrorQuotaOrAuth},
		{"api key", errors.New("Incorrect API key provided"), models.ErrorQuotaOrAuth},
		{"other", errors.New("connection reset by peer"), models.ErrorGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestOpenAIGenerator(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" Cinq ans. "}}]}`)
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator("sk-test", "gpt-test", srv.URL+"/v1/")
	require.NoError(t, err)
	out, err := g.Complete(context.Background(), Prompt{System: "sys", User: "question", MaxTokens: 50, Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "Cinq ans.", out)

	assert.Equal(t, "gpt-test", got["model"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
	assert.EqualValues(t, 50, got["max_tokens"])
}

func TestOpenAIGenerator_QuotaErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`)
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator("sk-test", "gpt-test", srv.URL+"/v1/")
	require.NoError(t, err)
	_, err = g.Complete(context.Background(), Prompt{User: "q"})
	require.Error(t, err)
	assert.Equal(t, models.ErrorQuotaOrAuth, Classify(err))
	assert.Equal(t, 1, calls)
}

func TestAnthropicGenerator(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"m1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"Article 44 : "},{"type":"text","text":"cinq ans."}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`)
	}))
	defer srv.Close()

	g, err := NewAnthropicGenerator("ak-test", "claude-test", srv.URL+"/")
	require.NoError(t, err)
	out, err := g.Complete(context.Background(), Prompt{System: "sys", User: "question"})
	require.NoError(t, err)
	assert.Equal(t, "Article 44 : cinq ans.", out)
	assert.Equal(t, "claude-test", got["model"])
	assert.EqualValues(t, defaultAnthropicMaxTokens, got["max_tokens"])
	assert.NotNil(t, got["system"])
}

func TestAnthropicGenerator_AuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	g, err := NewAnthropicGenerator("bad", "claude-test", srv.URL+"/")
	require.NoError(t, err)
	_, err = g.Complete(context.Background(), Prompt{User: "q"})
	require.Error(t, err)
	assert.Equal(t, models.ErrorQuotaOrAuth, Classify(err))
}

func TestNewGenerator(t *testing.T) {
	t.Setenv("KONSTI_TEST_KEY", "")

	gen, err := NewGenerator(&config.LLMConfig{Provider: "static"})
	require.NoError(t, err)
	assert.IsType(t, &StaticGenerator{}, gen)

	_, err = NewGenerator(&config.LLMConfig{Provider: "openai", APIKeyEnv: "KONSTI_TEST_KEY"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewGenerator(&config.LLMConfig{Provider: "mistral"})
	assert.Error(t, err)

	t.Setenv("KONSTI_TEST_KEY", "ak")
	gen, err = NewGenerator(&config.LLMConfig{Provider: "anthropic", APIKeyEnv: "KONSTI_TEST_KEY", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicGenerator{}, gen)

	gen, err = NewGenerator(&config.LLMConfig{Provider: "static", RequestsPerMinute: 60})
	require.NoError(t, err)
	assert.IsType(t, &RateLimited{}, gen)
}

func TestRateLimited(t *testing.T) {
	inner := NewStaticGenerator("ok")
	g := NewRateLimited(inner, 1, nil)

	out, err := g.Complete(context.Background(), Prompt{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	// the next token is a minute away, far beyond the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = g.Complete(ctx, Prompt{})
	require.Error(t, err)
	assert.Equal(t, models.ErrorTimeout, Classify(err))
	assert.Equal(t, 1, inner.Calls())
}
