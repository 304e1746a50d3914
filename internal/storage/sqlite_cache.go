package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperjump/konsti/internal/models"
)

// GetCacheEntry returns the cached answer for a question fingerprint, expired or not.
// Expiry is decided by the caller.
func (s *SQLiteStorage) GetCacheEntry(ctx context.Context, fingerprint string) (*models.CacheEntry, error) {
	var e models.CacheEntry
	var refsJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT question_hash, question, answer, article_references, confidence, hit_count,
		 created_at, last_used, expires_at
		 FROM response_cache WHERE question_hash = ?`, fingerprint,
	).Scan(&e.QuestionFingerprint, &e.Question, &e.Answer, &refsJSON, &e.Confidence, &e.HitCount,
		&e.CreatedAt, &e.LastUsed, &e.ExpiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cache entry %s: %w", fingerprint, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	e.ArticleReferences = []string{}
	if refsJSON.String != "" {
		if err := json.Unmarshal([]byte(refsJSON.String), &e.ArticleReferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal article references: %w", err)
		}
	}
	return &e, nil
}

// PutCacheEntry inserts or overwrites the entry with the same fingerprint.
func (s *SQLiteStorage) PutCacheEntry(ctx context.Context, e *models.CacheEntry) error {
	refsJSON, err := marshalList(e.ArticleReferences)
	if err != nil {
		return fmt.Errorf("failed to marshal article references: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO response_cache (question_hash, question, answer, article_references, confidence,
		 hit_count, created_at, last_used, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(question_hash) DO UPDATE SET
		 question = excluded.question,
		 answer = excluded.answer,
		 article_references = excluded.article_references,
		 confidence = excluded.confidence,
		 hit_count = excluded.hit_count,
		 created_at = excluded.created_at,
		 last_used = excluded.last_used,
		 expires_at = excluded.expires_at`,
		e.QuestionFingerprint, e.Question, e.Answer, refsJSON, e.Confidence,
		e.HitCount, e.CreatedAt, e.LastUsed, e.ExpiresAt,
	)
	return err
}

// ClearCache removes every cached answer.
func (s *SQLiteStorage) ClearCache(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM response_cache`)
	return err
}

// CountCacheEntries returns the number of stored entries, including expired ones.
func (s *SQLiteStorage) CountCacheEntries(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM response_cache`).Scan(&count)
	return count, err
}
