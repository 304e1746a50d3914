package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/konsti/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedConstitution(t *testing.T, store *SQLiteStorage, id string, year int) {
	t.Helper()
	ctx := context.Background()
	c := &models.Constitution{
		ID:       id,
		Filename: id + ".txt",
		Title:    "Constitution " + id,
		Year:     year,
		Status:   models.StatusActive,
		IsActive: true,
	}
	if err := store.CreateConstitution(ctx, c); err != nil {
		t.Fatal(err)
	}
	articles := []models.Article{
		{Number: "1", Content: "La Guinée est une République unitaire.", Position: 0, Keywords: []string{"république"}},
		{Number: "44", Content: "Le mandat du Président est de sept ans.", Position: 1, Chapter: "CHAPITRE I"},
	}
	structure := []models.StructureNode{{Level: 2, Kind: "chapitre", Title: "CHAPITRE I", StartArticle: "44", EndArticle: "44"}}
	if err := store.ReplaceArticles(ctx, id, articles, structure); err != nil {
		t.Fatal(err)
	}
}

func TestSQLiteStorage_ConstitutionCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	c := &models.Constitution{
		ID:        "c1",
		Filename:  "constitution-2020.pdf",
		Title:     "Constitution 2020",
		Year:      2020,
		KeyTopics: []string{"mandat", "élections"},
	}
	if err := store.CreateConstitution(ctx, c); err != nil {
		t.Fatal(err)
	}
	if c.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if c.Country != models.DefaultCountry || c.Status != models.StatusDraft {
		t.Errorf("defaults not applied: %+v", c)
	}

	got, err := store.GetConstitution(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Constitution 2020" || got.Year != 2020 || len(got.KeyTopics) != 2 {
		t.Errorf("got %+v", got)
	}

	got, err = store.GetConstitutionByFilename(ctx, "constitution-2020.pdf")
	if err != nil || got.ID != "c1" {
		t.Fatalf("GetConstitutionByFilename: %v %+v", err, got)
	}

	c.Title = "Updated"
	if err := store.UpdateConstitution(ctx, c); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetConstitution(ctx, "c1")
	if got.Title != "Updated" {
		t.Errorf("expected Updated, got %s", got.Title)
	}

	list, err := store.ListConstitutions(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 constitution, got %d", len(list))
	}

	if err := store.DeleteConstitution(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetConstitution(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteConstitution(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_DuplicateFilename(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	_ = store.CreateConstitution(ctx, &models.Constitution{ID: "a", Filename: "same.pdf", Title: "A"})
	err := store.CreateConstitution(ctx, &models.Constitution{ID: "b", Filename: "same.pdf", Title: "B"})
	if err == nil {
		t.Error("expected unique constraint error on filename")
	}
}

func TestSQLiteStorage_Articles(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	seedConstitution(t, store, "c1", 2020)

	articles, err := store.ListActiveArticles(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 2 || articles[0].Number != "1" || articles[1].Number != "44" {
		t.Fatalf("unexpected articles: %+v", articles)
	}
	if !articles[0].IsActive || articles[0].ConstitutionID != "c1" {
		t.Errorf("article flags not set: %+v", articles[0])
	}
	if len(articles[0].Keywords) != 1 || articles[0].Keywords[0] != "république" {
		t.Errorf("keywords not round-tripped: %v", articles[0].Keywords)
	}

	a, err := store.GetArticleByNumber(ctx, "c1", "44")
	if err != nil {
		t.Fatal(err)
	}
	if a.Chapter != "CHAPITRE I" {
		t.Errorf("chapter: got %q", a.Chapter)
	}
	if _, err := store.GetArticleByNumber(ctx, "c1", "99"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	a, err = store.GetArticleByNumber(ctx, "", "44")
	if err != nil || a.ConstitutionID != "c1" {
		t.Errorf("lookup across active constitutions: %v %+v", err, a)
	}

	nodes, err := store.ListStructure(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].StartArticle != "44" {
		t.Errorf("unexpected structure: %+v", nodes)
	}

	// Replacing drops the previous set.
	if err := store.ReplaceArticles(ctx, "c1", []models.Article{{Number: "2", Content: "Nouveau texte."}}, nil); err != nil {
		t.Fatal(err)
	}
	articles, _ = store.ListArticles(ctx, "c1")
	if len(articles) != 1 || articles[0].Number != "2" {
		t.Errorf("expected replaced set, got %+v", articles)
	}
	nodes, _ = store.ListStructure(ctx, "c1")
	if len(nodes) != 0 {
		t.Errorf("expected structure cleared, got %+v", nodes)
	}

	if err := store.ReplaceArticles(ctx, "missing", nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown constitution, got %v", err)
	}
}

func TestSQLiteStorage_DeactivateFiltersRetrieval(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	seedConstitution(t, store, "old", 2010)
	seedConstitution(t, store, "new", 2020)

	all, err := store.ListActiveArticles(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 active articles, got %d", len(all))
	}

	if err := store.SetConstitutionActive(ctx, "old", false); err != nil {
		t.Fatal(err)
	}
	all, _ = store.ListActiveArticles(ctx, "")
	if len(all) != 2 {
		t.Fatalf("expected 2 active articles after deactivation, got %d", len(all))
	}
	for _, a := range all {
		if a.ConstitutionID != "new" {
			t.Errorf("article of inactive constitution returned: %+v", a)
		}
	}
	inactive, _ := store.ListArticles(ctx, "old")
	for _, a := range inactive {
		if a.IsActive {
			t.Errorf("article %s should be inactive", a.Number)
		}
	}
	n, _ := store.CountActiveArticles(ctx)
	if n != 2 {
		t.Errorf("CountActiveArticles: got %d", n)
	}

	if err := store.SetConstitutionActive(ctx, "old", true); err != nil {
		t.Fatal(err)
	}
	all, _ = store.ListActiveArticles(ctx, "")
	if len(all) != 4 {
		t.Errorf("expected 4 active articles after reactivation, got %d", len(all))
	}
	if err := store.SetConstitutionActive(ctx, "missing", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_DeleteCascades(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	seedConstitution(t, store, "c1", 2020)

	if err := store.DeleteConstitution(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	articles, err := store.ListArticles(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 0 {
		t.Errorf("expected no orphaned articles, got %d", len(articles))
	}
	nodes, _ := store.ListStructure(ctx, "c1")
	if len(nodes) != 0 {
		t.Errorf("expected no orphaned structure nodes, got %d", len(nodes))
	}
}

func TestSQLiteStorage_SearchAndYears(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	seedConstitution(t, store, "c2010", 2010)
	seedConstitution(t, store, "c2020", 2020)
	_ = store.CreateConstitution(ctx, &models.Constitution{ID: "draft", Filename: "draft.txt", Title: "Projet de constitution"})

	years, err := store.ListYears(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(years) != 2 || years[0] != 2020 || years[1] != 2010 {
		t.Errorf("years: got %v", years)
	}

	got, err := store.SearchConstitutions(ctx, models.ConstitutionSearch{Year: 2010})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "c2010" {
		t.Errorf("year filter: got %+v", got)
	}

	got, _ = store.SearchConstitutions(ctx, models.ConstitutionSearch{Query: "projet"})
	if len(got) != 1 || got[0].ID != "draft" {
		t.Errorf("text filter: got %+v", got)
	}

	got, _ = store.SearchConstitutions(ctx, models.ConstitutionSearch{ActiveOnly: true})
	if len(got) != 2 {
		t.Errorf("active filter: got %d", len(got))
	}

	got, _ = store.SearchConstitutions(ctx, models.ConstitutionSearch{Status: models.StatusDraft})
	if len(got) != 1 {
		t.Errorf("status filter: got %d", len(got))
	}
}

func TestSQLiteStorage_CacheEntries(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := store.GetCacheEntry(ctx, "fp"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	e := &models.CacheEntry{
		QuestionFingerprint: "fp",
		Question:            "durée du mandat",
		Answer:              "Sept ans (Article 44).",
		ArticleReferences:   []string{"Article 44"},
		Confidence:          0.66,
		HitCount:            1,
		CreatedAt:           now,
		LastUsed:            now,
		ExpiresAt:           now.Add(24 * time.Hour),
	}
	if err := store.PutCacheEntry(ctx, e); err != nil {
		t.Fatal(err)
	}
	e.HitCount = 3
	if err := store.PutCacheEntry(ctx, e); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetCacheEntry(ctx, "fp")
	if err != nil {
		t.Fatal(err)
	}
	if got.HitCount != 3 || got.Answer != e.Answer || len(got.ArticleReferences) != 1 {
		t.Errorf("got %+v", got)
	}
	if !got.ExpiresAt.Equal(e.ExpiresAt) {
		t.Errorf("expiresAt: got %v want %v", got.ExpiresAt, e.ExpiresAt)
	}

	n, _ := store.CountCacheEntries(ctx)
	if n != 1 {
		t.Errorf("upsert should not duplicate, got %d entries", n)
	}
	if err := store.ClearCache(ctx); err != nil {
		t.Fatal(err)
	}
	n, _ = store.CountCacheEntries(ctx)
	if n != 0 {
		t.Errorf("expected empty cache, got %d", n)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	n, err := store.CountConstitutions(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountConstitutions: %v, %d", err, n)
	}
	seedConstitution(t, store, "c1", 2020)
	n, _ = store.CountConstitutions(ctx)
	if n != 1 {
		t.Errorf("expected 1 constitution, got %d", n)
	}
}
