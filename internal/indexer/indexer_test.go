package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/konsti/internal/extract"
	"github.com/hyperjump/konsti/internal/fileid"
	"github.com/hyperjump/konsti/internal/keyword"
	"github.com/hyperjump/konsti/internal/storage"
)

const sampleConstitution = `CONSTITUTION DE LA RÉPUBLIQUE DE GUINÉE 2020

Le peuple de Guinée proclame son attachement aux valeurs démocratiques.

TITRE I : DE L'ÉTAT ET DE LA SOUVERAINETÉ
Article 1 : La Guinée est une République unitaire, indivisible, laïque, démocratique et sociale.
Article 2 : La souveraineté nationale appartient au peuple qui l'exerce par ses représentants élus.
TITRE II : DU PRÉSIDENT DE LA RÉPUBLIQUE
Article 44 : Le Président de la République est élu au suffrage universel direct pour six ans.
`

type countingVocab struct{ n int }

func (c *countingVocab) Invalidate() { c.n++ }

type countingClearer struct {
	n   int
	err error
}

func (c *countingClearer) Clear(ctx context.Context) error {
	c.n++
	return c.err
}

func testImporter(t *testing.T, dir string, opts ...ImporterOption) (*Importer, storage.Storage, keyword.ArticleIndex, *countingVocab) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	index, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })
	vocab := &countingVocab{}
	im := NewImporter(store, index, extract.NewExtractor(), append([]ImporterOption{WithVocabulary(vocab)}, opts...)...)
	return im, store, index, vocab
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func docCount(t *testing.T, index keyword.ArticleIndex) uint64 {
	t.Helper()
	n, err := index.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		ext     string
		allowed []string
		want    bool
	}{
		{".txt", []string{".txt", ".md"}, true},
		{".TXT", []string{".txt"}, true},
		{".md", []string{".txt", ".md"}, true},
		{".go", []string{".txt"}, false},
		{"", []string{".txt"}, false},
		{".pdf", []string{"pdf", "docx"}, true},
	}
	for _, tt := range tests {
		got := extensionAllowed(tt.ext, tt.allowed)
		if got != tt.want {
			t.Errorf("extensionAllowed(%q, %v) = %v, want %v", tt.ext, tt.allowed, got, tt.want)
		}
	}
}

func TestImportFile_createsConstitution(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	im, store, index, vocab := testImporter(t, dir)
	path := filepath.Join(dir, "constitution_2020.txt")
	writeFile(t, path, sampleConstitution)

	res, err := im.ImportFile(ctx, path, []string{".txt"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Created || res.Skipped {
		t.Errorf("result = %+v, want created", res)
	}
	if res.Articles != 3 {
		t.Errorf("articles = %d, want 3", res.Articles)
	}
	absPath, _ := filepath.Abs(path)
	if res.ConstitutionID != fileid.ForPath(absPath) {
		t.Errorf("id = %q, want path-derived id", res.ConstitutionID)
	}

	c, err := store.GetConstitution(ctx, res.ConstitutionID)
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsActive {
		t.Error("new constitution should be active")
	}
	if c.Year != 2020 {
		t.Errorf("year = %d, want 2020", c.Year)
	}
	if c.Title != "CONSTITUTION DE LA RÉPUBLIQUE DE GUINÉE 2020" {
		t.Errorf("title = %q", c.Title)
	}
	articles, err := store.ListActiveArticles(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 3 || articles[2].Number != "44" {
		t.Fatalf("articles = %+v", articles)
	}
	if n := docCount(t, index); n != 3 {
		t.Errorf("index doc count = %d, want 3", n)
	}
	if vocab.n == 0 {
		t.Error("vocabulary not invalidated")
	}
}

func TestImportFile_skipsUnchangedAndReplacesChanged(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	im, store, _, _ := testImporter(t, dir)
	path := filepath.Join(dir, "constitution.txt")
	writeFile(t, path, sampleConstitution)

	first, err := im.ImportFile(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := im.ImportFile(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Skipped || second.Articles != 3 {
		t.Errorf("second import = %+v, want skipped with 3 articles", second)
	}

	writeFile(t, path, sampleConstitution+"Article 45 : Le mandat du Président est renouvelable une fois.\n")
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	third, err := im.ImportFile(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if third.Skipped || third.Created {
		t.Errorf("third import = %+v, want replaced", third)
	}
	if third.ConstitutionID != first.ConstitutionID {
		t.Error("re-import changed the constitution id")
	}
	articles, _ := store.ListArticles(ctx, first.ConstitutionID)
	if len(articles) != 4 {
		t.Errorf("articles after re-import = %d, want 4", len(articles))
	}
}

func TestImportFile_rejected(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	im, _, _, _ := testImporter(t, dir)

	path := filepath.Join(dir, "notes.go")
	writeFile(t, path, "package main")
	if _, err := im.ImportFile(ctx, path, []string{".txt"}); err == nil {
		t.Error("expected error for disallowed extension")
	}
	if _, err := im.ImportFile(ctx, filepath.Join(dir, "missing.txt"), nil); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := im.ImportFile(ctx, dir, nil); err == nil {
		t.Error("expected error for directory")
	}
}

func TestImportText_replacesByFilename(t *testing.T) {
	ctx := context.Background()
	im, store, _, _ := testImporter(t, t.TempDir())

	first, err := im.ImportText(ctx, TextInput{Filename: "guinee.txt", Text: sampleConstitution, Country: "Guinée"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := im.ImportText(ctx, TextInput{Filename: "guinee.txt", Title: "Constitution révisée", Text: sampleConstitution})
	if err != nil {
		t.Fatal(err)
	}
	if second.ConstitutionID != first.ConstitutionID || second.Created {
		t.Errorf("second = %+v, want update of %s", second, first.ConstitutionID)
	}
	c, err := store.GetConstitution(ctx, first.ConstitutionID)
	if err != nil {
		t.Fatal(err)
	}
	if c.Title != "Constitution révisée" || c.Country != "Guinée" {
		t.Errorf("constitution = %q / %q", c.Title, c.Country)
	}

	if _, err := im.ImportText(ctx, TextInput{Text: "x"}); err == nil {
		t.Error("expected error without filename")
	}
}

func TestDeactivateActivate(t *testing.T) {
	ctx := context.Background()
	im, store, index, _ := testImporter(t, t.TempDir())
	res, err := im.ImportText(ctx, TextInput{Filename: "g.txt", Text: sampleConstitution})
	if err != nil {
		t.Fatal(err)
	}

	if err := im.Deactivate(ctx, res.ConstitutionID); err != nil {
		t.Fatal(err)
	}
	active, _ := store.ListActiveArticles(ctx, "")
	if len(active) != 0 {
		t.Errorf("active articles after deactivate = %d", len(active))
	}
	if n := docCount(t, index); n != 0 {
		t.Errorf("index doc count after deactivate = %d", n)
	}

	if err := im.Activate(ctx, res.ConstitutionID); err != nil {
		t.Fatal(err)
	}
	active, _ = store.ListActiveArticles(ctx, "")
	if len(active) != 3 {
		t.Errorf("active articles after activate = %d", len(active))
	}
	if n := docCount(t, index); n != 3 {
		t.Errorf("index doc count after activate = %d", n)
	}

	if err := im.Deactivate(ctx, "unknown"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Deactivate(unknown) = %v, want ErrNotFound", err)
	}
}

func TestCorpusChangesClearResponseCache(t *testing.T) {
	ctx := context.Background()
	responses := &countingClearer{}
	im, _, _, vocab := testImporter(t, t.TempDir(), WithResponseCache(responses))

	res, err := im.ImportText(ctx, TextInput{Filename: "g.txt", Text: sampleConstitution})
	if err != nil {
		t.Fatal(err)
	}
	if responses.n != 1 {
		t.Errorf("clears after import = %d, want 1", responses.n)
	}

	if err := im.Deactivate(ctx, res.ConstitutionID); err != nil {
		t.Fatal(err)
	}
	if err := im.Activate(ctx, res.ConstitutionID); err != nil {
		t.Fatal(err)
	}
	if responses.n != 3 {
		t.Errorf("clears after deactivate and activate = %d, want 3", responses.n)
	}

	responses.err = errors.New("cache unavailable")
	if err := im.Delete(ctx, res.ConstitutionID); err != nil {
		t.Fatalf("Delete with a failing cache = %v, want nil", err)
	}
	if responses.n != 4 {
		t.Errorf("clears after delete = %d, want 4", responses.n)
	}
	if vocab.n != 4 {
		t.Errorf("vocabulary invalidations = %d, want 4", vocab.n)
	}
}

func TestRemoveFileAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	im, store, index, _ := testImporter(t, dir)
	path := filepath.Join(dir, "c.txt")
	writeFile(t, path, sampleConstitution)
	res, err := im.ImportFile(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := im.RemoveFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	c, err := store.GetConstitution(ctx, res.ConstitutionID)
	if err != nil {
		t.Fatal(err)
	}
	if c.IsActive {
		t.Error("removed file should deactivate its constitution")
	}
	if err := im.RemoveFile(ctx, filepath.Join(dir, "never-imported.txt")); err != nil {
		t.Errorf("RemoveFile(unknown) = %v", err)
	}

	if err := im.Delete(ctx, res.ConstitutionID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetConstitution(ctx, res.ConstitutionID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
	if n := docCount(t, index); n != 0 {
		t.Errorf("index doc count after delete = %d", n)
	}
}

func TestImportDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	if err := os.MkdirAll(filepath.Join(docs, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(docs, "a.txt"), sampleConstitution)
	writeFile(t, filepath.Join(docs, "sub", "b.md"), "Article 1 : Texte de la constitution de test.\n")
	writeFile(t, filepath.Join(docs, "ignored.go"), "package main")
	im, store, _, _ := testImporter(t, dir)

	n, err := im.ImportDirectory(ctx, docs, []string{".txt", ".md"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("imported = %d, want 2", n)
	}
	count, _ := store.CountConstitutions(ctx)
	if count != 2 {
		t.Errorf("constitutions = %d, want 2", count)
	}

	if _, err := im.ImportDirectory(ctx, filepath.Join(docs, "a.txt"), nil); err == nil {
		t.Error("expected error for non-directory")
	}
}

func TestReindex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	im, store, _, _ := testImporter(t, dir)
	if _, err := im.ImportText(ctx, TextInput{Filename: "g.txt", Text: sampleConstitution}); err != nil {
		t.Fatal(err)
	}

	fresh, err := keyword.NewBleveIndex(filepath.Join(dir, "fresh"))
	if err != nil {
		t.Fatal(err)
	}
	defer fresh.Close()
	n, err := NewImporter(store, fresh, nil).Reindex(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("reindexed constitutions = %d, want 1", n)
	}
	if c := docCount(t, fresh); c != 3 {
		t.Errorf("fresh index doc count = %d, want 3", c)
	}
}

func TestGuessTitleAndYear(t *testing.T) {
	if got := guessTitle("\n  Préambule\nConstitution   du 22 mars 2020\n", "x.txt"); got != "Constitution du 22 mars 2020" {
		t.Errorf("guessTitle = %q", got)
	}
	if got := guessTitle("Article 1 : texte", "loi_fondamentale-guinee.pdf"); got != "loi fondamentale guinee" {
		t.Errorf("guessTitle fallback = %q", got)
	}
	if got := guessYear("Constitution de 2010"); got != 2010 {
		t.Errorf("guessYear = %d", got)
	}
	if got := guessYear("sans date"); got != 0 {
		t.Errorf("guessYear = %d, want 0", got)
	}
}
