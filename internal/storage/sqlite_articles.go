package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperjump/konsti/internal/models"
)

const articleColumns = `a.constitution_id, a.number, a.title, a.content, a.chapter, a.section,
	a.part, a.category, a.keywords, a.position, a.is_active`

func scanArticle(row rowScanner) (models.Article, error) {
	var a models.Article
	var title, chapter, section, part, category, keywordsJSON sql.NullString
	if err := row.Scan(&a.ConstitutionID, &a.Number, &title, &a.Content, &chapter, &section,
		&part, &category, &keywordsJSON, &a.Position, &a.IsActive); err != nil {
		return a, err
	}
	a.Title = title.String
	a.Chapter = chapter.String
	a.Section = section.String
	a.Part = part.String
	a.Category = category.String
	if keywordsJSON.String != "" {
		if err := json.Unmarshal([]byte(keywordsJSON.String), &a.Keywords); err != nil {
			return a, fmt.Errorf("failed to unmarshal keywords: %w", err)
		}
	}
	return a, nil
}

// ReplaceArticles swaps the articles and structure of a constitution for a freshly
// segmented set. New articles take the constitution's active flag.
func (s *SQLiteStorage) ReplaceArticles(ctx context.Context, constitutionID string, articles []models.Article, structure []models.StructureNode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var active bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_active FROM constitutions WHERE id = ?`, constitutionID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("constitution %s: %w", constitutionID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE constitution_id = ?`, constitutionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM structure_nodes WHERE constitution_id = ?`, constitutionID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO articles (constitution_id, number, title, content, chapter, section,
		 part, category, keywords, position, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range articles {
		a := &articles[i]
		a.ConstitutionID = constitutionID
		a.IsActive = active
		keywordsJSON, err := marshalList(a.Keywords)
		if err != nil {
			return fmt.Errorf("failed to marshal keywords: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, a.ConstitutionID, a.Number, a.Title, a.Content, a.Chapter,
			a.Section, a.Part, a.Category, keywordsJSON, a.Position, a.IsActive); err != nil {
			return fmt.Errorf("failed to insert article %s: %w", a.Number, err)
		}
	}

	nodeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO structure_nodes (constitution_id, node_index, level, kind, title, start_article, end_article)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer nodeStmt.Close()

	for i, n := range structure {
		if _, err := nodeStmt.ExecContext(ctx, constitutionID, i, n.Level, n.Kind, n.Title,
			n.StartArticle, n.EndArticle); err != nil {
			return fmt.Errorf("failed to insert structure node: %w", err)
		}
	}
	return tx.Commit()
}

// ListActiveArticles returns the articles retrieval may see: active articles whose
// constitution is active too, in corpus order.
func (s *SQLiteStorage) ListActiveArticles(ctx context.Context, constitutionID string) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles a
		JOIN constitutions c ON c.id = a.constitution_id
		WHERE a.is_active = 1 AND c.is_active = 1`
	var args []any
	if constitutionID != "" {
		query += ` AND c.id = ?`
		args = append(args, constitutionID)
	}
	query += ` ORDER BY c.created_at, c.id, a.position`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

// ListArticles returns every article of a constitution, active or not, in corpus order.
func (s *SQLiteStorage) ListArticles(ctx context.Context, constitutionID string) ([]models.Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles a WHERE a.constitution_id = ? ORDER BY a.position`,
		constitutionID,
	)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

func collectArticles(rows *sql.Rows) ([]models.Article, error) {
	defer rows.Close()
	articles := []models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// GetArticleByNumber returns one article of a constitution. With an empty constitutionID
// the first active match across active constitutions is returned.
func (s *SQLiteStorage) GetArticleByNumber(ctx context.Context, constitutionID, number string) (*models.Article, error) {
	var row *sql.Row
	if constitutionID == "" {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+articleColumns+` FROM articles a
			 JOIN constitutions c ON c.id = a.constitution_id
			 WHERE a.number = ? AND a.is_active = 1 AND c.is_active = 1
			 ORDER BY c.created_at, c.id LIMIT 1`, number)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+articleColumns+` FROM articles a
			 WHERE a.constitution_id = ? AND a.number = ?`, constitutionID, number)
	}
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %s: %w", number, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListStructure returns the titre/chapitre/section headings of a constitution in document order.
func (s *SQLiteStorage) ListStructure(ctx context.Context, constitutionID string) ([]models.StructureNode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT level, kind, title, start_article, end_article FROM structure_nodes
		 WHERE constitution_id = ? ORDER BY node_index`, constitutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := []models.StructureNode{}
	for rows.Next() {
		var n models.StructureNode
		var start, end sql.NullString
		if err := rows.Scan(&n.Level, &n.Kind, &n.Title, &start, &end); err != nil {
			return nil, err
		}
		n.StartArticle = start.String
		n.EndArticle = end.String
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}
