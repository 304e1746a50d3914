// Package storage defines the persistence interface for constitutions, articles and cached answers.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/konsti/internal/models"
)

// ErrNotFound is returned when a constitution, article or cache entry does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines constitution, article and response cache persistence.
type Storage interface {
	// Constitution operations
	CreateConstitution(ctx context.Context, c *models.Constitution) error
	GetConstitution(ctx context.Context, id string) (*models.Constitution, error)
	GetConstitutionByFilename(ctx context.Context, filename string) (*models.Constitution, error)
	UpdateConstitution(ctx context.Context, c *models.Constitution) error
	DeleteConstitution(ctx context.Context, id string) error
	ListConstitutions(ctx context.Context, offset, limit int) ([]*models.Constitution, error)
	SearchConstitutions(ctx context.Context, q models.ConstitutionSearch) ([]*models.Constitution, error)
	ListYears(ctx context.Context) ([]int, error)

	// SetConstitutionActive flips the constitution and all of its articles in one transaction.
	SetConstitutionActive(ctx context.Context, id string, active bool) error

	// Article operations
	ReplaceArticles(ctx context.Context, constitutionID string, articles []models.Article, structure []models.StructureNode) error
	// ListActiveArticles returns active articles of active constitutions in corpus order.
	// An empty constitutionID means every active constitution.
	ListActiveArticles(ctx context.Context, constitutionID string) ([]models.Article, error)
	ListArticles(ctx context.Context, constitutionID string) ([]models.Article, error)
	GetArticleByNumber(ctx context.Context, constitutionID, number string) (*models.Article, error)
	ListStructure(ctx context.Context, constitutionID string) ([]models.StructureNode, error)

	// Response cache operations
	GetCacheEntry(ctx context.Context, fingerprint string) (*models.CacheEntry, error)
	PutCacheEntry(ctx context.Context, e *models.CacheEntry) error
	ClearCache(ctx context.Context) error
	CountCacheEntries(ctx context.Context) (int, error)

	// Stats
	CountConstitutions(ctx context.Context) (int64, error)
	CountActiveArticles(ctx context.Context) (int64, error)

	Close() error
}
