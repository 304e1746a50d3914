// Package cache keeps generated answers keyed by a fingerprint of the normalized question.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/storage"
)

// DefaultTTL is how long a stored answer stays servable.
const DefaultTTL = 24 * time.Hour

// ResponseCache serves previously generated answers for repeated questions.
// Lookups and stores are serialized so hit counts are never lost.
type ResponseCache struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu          sync.Mutex
	hits        uint64
	misses      uint64
	writes      uint64
	writeErrors uint64
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithTTL sets the lifetime of stored answers. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResponseCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) { c.now = now }
}

// WithLogger sets a logger for hits, misses and swallowed write failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *ResponseCache) { c.logger = l }
}

// New creates a ResponseCache over backend.
func New(backend Backend, opts ...Option) *ResponseCache {
	c := &ResponseCache{
		backend: backend,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Normalize lowercases question, trims it and collapses inner whitespace.
func Normalize(question string) string {
	return strings.Join(strings.Fields(strings.ToLower(question)), " ")
}

// Fingerprint is the hex sha256 of the normalized question.
func Fingerprint(question string) string {
	sum := sha256.Sum256([]byte(Normalize(question)))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the stored answer for question when one exists and has not expired.
// A hit increments the entry's hit count and refreshes its last use. Backend errors
// count as misses.
func (c *ResponseCache) Lookup(ctx context.Context, question string) (*models.CacheEntry, bool) {
	fp := Fingerprint(question)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.backend.GetCacheEntry(ctx, fp)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("cache lookup failed", zap.String("fingerprint", fp), zap.Error(err))
		}
		c.misses++
		return nil, false
	}
	now := c.now()
	if e.Expired(now) {
		c.misses++
		c.logger.Debug("cache entry expired", zap.String("fingerprint", fp), zap.Time("expires_at", e.ExpiresAt))
		return nil, false
	}

	e.HitCount++
	e.LastUsed = now
	if err := c.backend.PutCacheEntry(ctx, e); err != nil {
		c.writeErrors++
		c.logger.Warn("cache hit count update failed", zap.String("fingerprint", fp), zap.Error(err))
	}
	c.hits++
	c.logger.Debug("cache hit", zap.String("fingerprint", fp), zap.Int("hit_count", e.HitCount))
	return e, true
}

// Store records a generated answer. A live entry for the same question is refreshed
// and keeps counting hits; otherwise a new entry starts at one hit. Failures are
// logged and swallowed.
func (c *ResponseCache) Store(ctx context.Context, question, answer string, refs []string, confidence float64) {
	fp := Fingerprint(question)
	now := c.now()
	if refs == nil {
		refs = []string{}
	}
	entry := &models.CacheEntry{
		QuestionFingerprint: fp,
		Question:            strings.TrimSpace(question),
		Answer:              answer,
		ArticleReferences:   refs,
		Confidence:          confidence,
		HitCount:            1,
		CreatedAt:           now,
		LastUsed:            now,
		ExpiresAt:           now.Add(c.ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, err := c.backend.GetCacheEntry(ctx, fp); err == nil && !existing.Expired(now) {
		entry.HitCount = existing.HitCount + 1
		entry.CreatedAt = existing.CreatedAt
	}
	if err := c.backend.PutCacheEntry(ctx, entry); err != nil {
		c.writeErrors++
		c.logger.Warn("cache write failed", zap.String("fingerprint", fp), zap.Error(err))
		return
	}
	c.writes++
}

// Clear removes every stored answer.
func (c *ResponseCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.ClearCache(ctx)
}

// Stats summarizes cache usage since start.
type Stats struct {
	Entries     int     `json:"entries"`
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	Writes      uint64  `json:"writes"`
	WriteErrors uint64  `json:"write_errors"`
	TTLSeconds  float64 `json:"ttl_seconds"`
}

// Stats returns usage counters and the number of stored entries, expired ones included.
func (c *ResponseCache) Stats(ctx context.Context) (Stats, error) {
	c.mu.Lock()
	s := Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		Writes:      c.writes,
		WriteErrors: c.writeErrors,
		TTLSeconds:  c.ttl.Seconds(),
	}
	c.mu.Unlock()

	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	n, err := c.backend.CountCacheEntries(ctx)
	if err != nil {
		return s, err
	}
	s.Entries = n
	return s, nil
}
