// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/konsti/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. Foreign keys are enforced on every
// connection so that deleting a constitution cascades to its articles.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS constitutions (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT,
		year INTEGER,
		country TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		content TEXT,
		summary TEXT,
		file_path TEXT,
		file_size INTEGER DEFAULT 0,
		key_topics TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_constitutions_year ON constitutions(year);
	CREATE INDEX IF NOT EXISTS idx_constitutions_active ON constitutions(is_active);

	CREATE TABLE IF NOT EXISTS articles (
		constitution_id TEXT NOT NULL,
		number TEXT NOT NULL,
		title TEXT,
		content TEXT NOT NULL,
		chapter TEXT,
		section TEXT,
		part TEXT,
		category TEXT,
		keywords TEXT,
		position INTEGER NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (constitution_id, number),
		FOREIGN KEY (constitution_id) REFERENCES constitutions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_articles_position ON articles(constitution_id, position);

	CREATE TABLE IF NOT EXISTS structure_nodes (
		constitution_id TEXT NOT NULL,
		node_index INTEGER NOT NULL,
		level INTEGER NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		start_article TEXT,
		end_article TEXT,
		PRIMARY KEY (constitution_id, node_index),
		FOREIGN KEY (constitution_id) REFERENCES constitutions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS response_cache (
		question_hash TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		article_references TEXT,
		confidence REAL NOT NULL DEFAULT 0,
		hit_count INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		last_used TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

const constitutionColumns = `id, filename, title, description, year, country, status, content,
	summary, file_path, file_size, key_topics, is_active, created_at, updated_at`

func scanConstitution(row rowScanner) (*models.Constitution, error) {
	var c models.Constitution
	var description, country, content, summary, filePath, topicsJSON sql.NullString
	var year sql.NullInt64
	var status string
	if err := row.Scan(&c.ID, &c.Filename, &c.Title, &description, &year, &country, &status,
		&content, &summary, &filePath, &c.FileSize, &topicsJSON, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Description = description.String
	c.Year = int(year.Int64)
	c.Country = country.String
	c.Status = models.ConstitutionStatus(status)
	c.Content = content.String
	c.Summary = summary.String
	c.FilePath = filePath.String
	if topicsJSON.String != "" {
		if err := json.Unmarshal([]byte(topicsJSON.String), &c.KeyTopics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal key topics: %w", err)
		}
	}
	return &c, nil
}

func marshalList(list []string) (string, error) {
	if len(list) == 0 {
		return "", nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateConstitution inserts a constitution. Empty country and status get their defaults.
func (s *SQLiteStorage) CreateConstitution(ctx context.Context, c *models.Constitution) error {
	topicsJSON, err := marshalList(c.KeyTopics)
	if err != nil {
		return fmt.Errorf("failed to marshal key topics: %w", err)
	}
	if c.Country == "" {
		c.Country = models.DefaultCountry
	}
	if c.Status == "" {
		c.Status = models.StatusDraft
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO constitutions (`+constitutionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Filename, c.Title, c.Description, c.Year, c.Country, string(c.Status), c.Content,
		c.Summary, c.FilePath, c.FileSize, topicsJSON, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert constitution: %w", err)
	}
	return nil
}

// GetConstitution returns a constitution by ID.
func (s *SQLiteStorage) GetConstitution(ctx context.Context, id string) (*models.Constitution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+constitutionColumns+` FROM constitutions WHERE id = ?`, id)
	c, err := scanConstitution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("constitution %s: %w", id, ErrNotFound)
	}
	return c, err
}

// GetConstitutionByFilename returns the constitution imported from filename.
func (s *SQLiteStorage) GetConstitutionByFilename(ctx context.Context, filename string) (*models.Constitution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+constitutionColumns+` FROM constitutions WHERE filename = ?`, filename)
	c, err := scanConstitution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("constitution file %s: %w", filename, ErrNotFound)
	}
	return c, err
}

// UpdateConstitution updates the metadata and content of an existing constitution.
// The active flag is left alone; use SetConstitutionActive so articles follow.
func (s *SQLiteStorage) UpdateConstitution(ctx context.Context, c *models.Constitution) error {
	topicsJSON, err := marshalList(c.KeyTopics)
	if err != nil {
		return fmt.Errorf("failed to marshal key topics: %w", err)
	}

	c.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE constitutions SET filename = ?, title = ?, description = ?, year = ?, country = ?,
		 status = ?, content = ?, summary = ?, file_path = ?, file_size = ?, key_topics = ?, updated_at = ?
		 WHERE id = ?`,
		c.Filename, c.Title, c.Description, c.Year, c.Country, string(c.Status), c.Content,
		c.Summary, c.FilePath, c.FileSize, topicsJSON, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("constitution %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// DeleteConstitution removes a constitution together with its articles and structure.
func (s *SQLiteStorage) DeleteConstitution(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM constitutions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("constitution %s: %w", id, ErrNotFound)
	}
	// ON DELETE CASCADE covers these; the explicit deletes keep databases opened
	// without foreign key enforcement free of orphans.
	if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE constitution_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM structure_nodes WHERE constitution_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListConstitutions returns constitutions with offset and limit, newest year first.
func (s *SQLiteStorage) ListConstitutions(ctx context.Context, offset, limit int) ([]*models.Constitution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+constitutionColumns+` FROM constitutions
		 ORDER BY year DESC, created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collectConstitutions(rows)
}

// SearchConstitutions filters constitutions by free text over title, description and summary,
// and by year, country, status and active flag.
func (s *SQLiteStorage) SearchConstitutions(ctx context.Context, q models.ConstitutionSearch) ([]*models.Constitution, error) {
	var where []string
	var args []any
	if text := strings.TrimSpace(q.Query); text != "" {
		like := "%" + strings.ToLower(text) + "%"
		where = append(where, `(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(summary) LIKE ?)`)
		args = append(args, like, like, like)
	}
	if q.Year > 0 {
		where = append(where, `year = ?`)
		args = append(args, q.Year)
	}
	if q.Country != "" {
		where = append(where, `country = ?`)
		args = append(args, q.Country)
	}
	if q.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, string(q.Status))
	}
	if q.ActiveOnly {
		where = append(where, `is_active = 1`)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + constitutionColumns + ` FROM constitutions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY year DESC, created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectConstitutions(rows)
}

func collectConstitutions(rows *sql.Rows) ([]*models.Constitution, error) {
	defer rows.Close()
	list := []*models.Constitution{}
	for rows.Next() {
		c, err := scanConstitution(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ListYears returns the distinct known years, newest first.
func (s *SQLiteStorage) ListYears(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT year FROM constitutions WHERE year > 0 ORDER BY year DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	years := []int{}
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// SetConstitutionActive activates or deactivates a constitution and all of its articles
// in a single transaction.
func (s *SQLiteStorage) SetConstitutionActive(ctx context.Context, id string, active bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE constitutions SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("constitution %s: %w", id, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE articles SET is_active = ? WHERE constitution_id = ?`, active, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CountConstitutions returns the total number of constitutions.
func (s *SQLiteStorage) CountConstitutions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM constitutions`).Scan(&count)
	return count, err
}

// CountActiveArticles returns the number of articles visible to retrieval.
func (s *SQLiteStorage) CountActiveArticles(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles a JOIN constitutions c ON c.id = a.constitution_id
		 WHERE a.is_active = 1 AND c.is_active = 1`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
