// Package llm talks to the language model that phrases answers from retrieved articles.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/konsti/internal/config"
)

// Provider names accepted in the llm config section.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderStatic    = "static"
)

// ErrMissingAPIKey is returned when a hosted provider has no key in the environment.
var ErrMissingAPIKey = errors.New("missing API key")

// Prompt is one single-turn completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Generator completes a prompt. Implementations make a single attempt and honor ctx.
type Generator interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

type factoryOptions struct {
	logger *zap.Logger
}

// Option configures NewGenerator.
type Option func(*factoryOptions)

// WithLogger sets the logger used by the rate limiter wrapper.
func WithLogger(l *zap.Logger) Option {
	return func(o *factoryOptions) { o.logger = l }
}

// NewGenerator builds the generator named by cfg.Provider. A positive
// RequestsPerMinute puts a token bucket in front of it.
func NewGenerator(cfg *config.LLMConfig, opts ...Option) (Generator, error) {
	o := factoryOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		gen Generator
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "":
		gen, err = NewOpenAIGenerator(cfg.APIKey(), cfg.Model, cfg.BaseURL)
	case ProviderAnthropic:
		gen, err = NewAnthropicGenerator(cfg.APIKey(), cfg.Model, cfg.BaseURL)
	case ProviderStatic:
		gen = &StaticGenerator{}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%s generator (key from $%s): %w", cfg.Provider, cfg.APIKeyEnv, err)
	}
	if cfg.RequestsPerMinute > 0 {
		gen = NewRateLimited(gen, cfg.RequestsPerMinute, o.logger)
	}
	return gen, nil
}

// RateLimited spaces out calls to the wrapped generator. Waiting counts against
// the caller's deadline.
type RateLimited struct {
	next    Generator
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRateLimited allows perMinute calls per minute with a burst of one.
func NewRateLimited(next Generator, perMinute int, logger *zap.Logger) *RateLimited {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		logger:  logger,
	}
}

// Complete waits for a token then delegates.
func (r *RateLimited) Complete(ctx context.Context, p Prompt) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Warn("generator rate limit wait aborted", zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		// the limiter refuses up front when the deadline cannot be met
		return "", fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return r.next.Complete(ctx, p)
}
