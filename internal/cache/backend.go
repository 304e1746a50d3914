package cache

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/storage"
)

// Backend persists cache entries. Get returns an error wrapping storage.ErrNotFound
// for unknown fingerprints. *storage.SQLiteStorage satisfies it.
type Backend interface {
	GetCacheEntry(ctx context.Context, fingerprint string) (*models.CacheEntry, error)
	PutCacheEntry(ctx context.Context, e *models.CacheEntry) error
	ClearCache(ctx context.Context) error
	CountCacheEntries(ctx context.Context) (int, error)
}

// MemoryStore is a size-bounded in-process Backend. The least recently used
// entry is dropped when the store is full.
type MemoryStore struct {
	entries   *lru.Cache[string, models.CacheEntry]
	evictions atomic.Uint64
}

// NewMemoryStore creates a MemoryStore holding at most size entries.
func NewMemoryStore(size int) (*MemoryStore, error) {
	m := &MemoryStore{}
	entries, err := lru.NewWithEvict[string, models.CacheEntry](size, func(string, models.CacheEntry) {
		m.evictions.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	m.entries = entries
	return m, nil
}

// GetCacheEntry returns a copy of the stored entry.
func (m *MemoryStore) GetCacheEntry(_ context.Context, fingerprint string) (*models.CacheEntry, error) {
	e, ok := m.entries.Get(fingerprint)
	if !ok {
		return nil, fmt.Errorf("cache entry %s: %w", fingerprint, storage.ErrNotFound)
	}
	e.ArticleReferences = append([]string{}, e.ArticleReferences...)
	return &e, nil
}

// PutCacheEntry stores a copy of e.
func (m *MemoryStore) PutCacheEntry(_ context.Context, e *models.CacheEntry) error {
	stored := *e
	stored.ArticleReferences = append([]string{}, e.ArticleReferences...)
	m.entries.Add(e.QuestionFingerprint, stored)
	return nil
}

// ClearCache drops every entry.
func (m *MemoryStore) ClearCache(context.Context) error {
	m.entries.Purge()
	return nil
}

// CountCacheEntries returns the number of held entries.
func (m *MemoryStore) CountCacheEntries(context.Context) (int, error) {
	return m.entries.Len(), nil
}

// Evictions returns how many entries were dropped for space.
// Purge also runs the eviction callback, so a clear counts too.
func (m *MemoryStore) Evictions() uint64 {
	return m.evictions.Load()
}
