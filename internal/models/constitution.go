// Package models defines core data structures for constitutions, articles, answers and chat state.
package models

import "time"

// ConstitutionStatus is the editorial state of a constitution record.
type ConstitutionStatus string

const (
	StatusDraft         ConstitutionStatus = "draft"
	StatusActive        ConstitutionStatus = "active"
	StatusArchived      ConstitutionStatus = "archived"
	StatusInDevelopment ConstitutionStatus = "in_development"
)

// Valid reports whether s is one of the known statuses.
func (s ConstitutionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived, StatusInDevelopment:
		return true
	}
	return false
}

// DefaultCountry is used when a constitution is created without a country.
const DefaultCountry = "Guinée"

// Constitution is a stored constitutional text and its metadata.
type Constitution struct {
	ID          string             `json:"id" db:"id"`
	Filename    string             `json:"filename" db:"filename"`
	Title       string             `json:"title" db:"title"`
	Description string             `json:"description,omitempty" db:"description"`
	Year        int                `json:"year,omitempty" db:"year"`
	Country     string             `json:"country" db:"country"`
	Status      ConstitutionStatus `json:"status" db:"status"`
	Content     string             `json:"content,omitempty" db:"content"`
	Summary     string             `json:"summary,omitempty" db:"summary"`
	FilePath    string             `json:"file_path,omitempty" db:"file_path"`
	FileSize    int64              `json:"file_size" db:"file_size"`
	KeyTopics   []string           `json:"key_topics,omitempty" db:"key_topics"`
	IsActive    bool               `json:"is_active" db:"is_active"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

// Article is one numbered article of a constitution.
// Number is unique within the active articles of one constitution.
type Article struct {
	ConstitutionID string   `json:"constitution_id" db:"constitution_id"`
	Number         string   `json:"number" db:"number"`
	Title          string   `json:"title,omitempty" db:"title"`
	Content        string   `json:"content" db:"content"`
	Chapter        string   `json:"chapter,omitempty" db:"chapter"`
	Section        string   `json:"section,omitempty" db:"section"`
	Part           string   `json:"part,omitempty" db:"part"`
	Category       string   `json:"category,omitempty" db:"category"`
	Keywords       []string `json:"keywords,omitempty" db:"keywords"`
	Position       int      `json:"position" db:"position"`
	IsActive       bool     `json:"is_active" db:"is_active"`
}

// Reference is the citation form of an article, e.g. "Article 44".
func (a Article) Reference() string {
	return "Article " + a.Number
}

// StructureNode is a heading (titre, chapitre, section) detected in a constitution
// and the range of articles it covers.
type StructureNode struct {
	Level        int    `json:"level"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	StartArticle string `json:"start_article,omitempty"`
	EndArticle   string `json:"end_article,omitempty"`
}

// ConstitutionInput is the body for creating or updating a constitution.
type ConstitutionInput struct {
	Filename    string             `json:"filename" validate:"required,max=255"`
	Title       string             `json:"title" validate:"required,max=255"`
	Description string             `json:"description,omitempty" validate:"max=4000"`
	Year        int                `json:"year,omitempty" validate:"omitempty,gte=1800,lte=2100"`
	Country     string             `json:"country,omitempty" validate:"max=100"`
	Status      ConstitutionStatus `json:"status,omitempty" validate:"omitempty,oneof=draft active archived in_development"`
	Content     string             `json:"content,omitempty"`
	Summary     string             `json:"summary,omitempty"`
	KeyTopics   []string           `json:"key_topics,omitempty"`
}

// ConstitutionSearch filters constitutions by text, year, country and status.
type ConstitutionSearch struct {
	Query      string             `json:"query,omitempty" validate:"max=500"`
	Year       int                `json:"year,omitempty"`
	Country    string             `json:"country,omitempty"`
	Status     ConstitutionStatus `json:"status,omitempty" validate:"omitempty,oneof=draft active archived in_development"`
	ActiveOnly bool               `json:"active_only,omitempty"`
	Limit      int                `json:"limit,omitempty" validate:"gte=0,lte=100"`
}
