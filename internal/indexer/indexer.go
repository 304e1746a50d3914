// Package indexer imports constitution files: it extracts their text, segments it
// into articles and writes them to storage and the article index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/extract"
	"github.com/hyperjump/konsti/internal/fileid"
	"github.com/hyperjump/konsti/internal/keyword"
	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/storage"
	"github.com/hyperjump/konsti/pkg/utils"
)

const (
	summaryChars = 300
	listPageSize = 100
)

var yearRe = regexp.MustCompile(`\b(1[89]\d\d|20\d\d)\b`)

// Invalidator is told when the indexed vocabulary changed.
type Invalidator interface {
	Invalidate()
}

// Clearer drops answers cached against the previous active corpus.
type Clearer interface {
	Clear(ctx context.Context) error
}

// ImportResult describes one imported constitution.
type ImportResult struct {
	ConstitutionID string `json:"constitution_id"`
	Title          string `json:"title"`
	Articles       int    `json:"articles"`
	Structure      int    `json:"structure"`
	Created        bool   `json:"created"`
	Skipped        bool   `json:"skipped"`
}

// TextInput is a constitution supplied as text rather than as a file.
type TextInput struct {
	ID       string
	Filename string
	Title    string
	Year     int
	Country  string
	Text     string
}

// Importer writes constitutions to storage and keeps the article index in step.
type Importer struct {
	storage   storage.Storage
	index     keyword.ArticleIndex
	extractor *extract.Extractor
	segmenter *Segmenter
	vocab     Invalidator
	responses Clearer
	logger    *zap.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ImporterOption {
	return func(im *Importer) { im.logger = l }
}

// WithSegmenter replaces the default segmenter.
func WithSegmenter(s *Segmenter) ImporterOption {
	return func(im *Importer) { im.segmenter = s }
}

// WithVocabulary registers a cache of indexed terms to invalidate after each change.
func WithVocabulary(v Invalidator) ImporterOption {
	return func(im *Importer) { im.vocab = v }
}

// WithResponseCache registers the answer cache to clear whenever the active
// article set changes.
func WithResponseCache(c Clearer) ImporterOption {
	return func(im *Importer) { im.responses = c }
}

// NewImporter creates an importer. index and extractor may be nil: without an
// index only storage is written, without an extractor files are read as plain text.
func NewImporter(store storage.Storage, index keyword.ArticleIndex, extractor *extract.Extractor, opts ...ImporterOption) *Importer {
	im := &Importer{
		storage:   store,
		index:     index,
		extractor: extractor,
		segmenter: NewSegmenter(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportFile imports the file at path. The constitution ID derives from the absolute
// path, so importing the same file again replaces its articles. An unchanged file
// is skipped. Extraction failures are logged and import an empty article list.
func (im *Importer) ImportFile(ctx context.Context, path string, allowedExts []string) (*ImportResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	id := fileid.ForPath(absPath)
	if res, ok := im.skipUnchanged(ctx, id, info); ok {
		im.logger.Debug("importer skipping unchanged file", zap.String("path", absPath))
		return res, nil
	}

	text, err := im.extractText(absPath)
	if err != nil {
		im.logger.Warn("text extraction failed", zap.String("path", absPath), zap.Error(err))
		text = ""
	}
	c := &models.Constitution{
		ID:       id,
		Filename: filepath.Base(absPath),
		FilePath: absPath,
		FileSize: info.Size(),
	}
	return im.importDocument(ctx, c, text)
}

// skipUnchanged reports whether the stored constitution already reflects the file.
// The article index is refreshed from storage since it may have been opened empty.
func (im *Importer) skipUnchanged(ctx context.Context, id string, info os.FileInfo) (*ImportResult, bool) {
	existing, err := im.storage.GetConstitution(ctx, id)
	if err != nil {
		return nil, false
	}
	if existing.FileSize != info.Size() || info.ModTime().After(existing.UpdatedAt) {
		return nil, false
	}
	articles, err := im.storage.ListArticles(ctx, id)
	if err != nil {
		return nil, false
	}
	if existing.IsActive && im.index != nil {
		if err := im.index.IndexArticles(ctx, id, articles); err != nil {
			im.logger.Warn("failed to refresh article index", zap.String("id", id), zap.Error(err))
		}
	}
	return &ImportResult{ConstitutionID: id, Title: existing.Title, Articles: len(articles), Skipped: true}, true
}

// ImportText imports a constitution given as text. Without an ID the constitution
// with the same filename is replaced, or a new one is created.
func (im *Importer) ImportText(ctx context.Context, in TextInput) (*ImportResult, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return nil, errors.New("filename is required")
	}
	id := in.ID
	if id == "" {
		existing, err := im.storage.GetConstitutionByFilename(ctx, in.Filename)
		switch {
		case err == nil:
			id = existing.ID
		case errors.Is(err, storage.ErrNotFound):
			id = fileid.New()
		default:
			return nil, fmt.Errorf("lookup constitution: %w", err)
		}
	}
	c := &models.Constitution{
		ID:       id,
		Filename: in.Filename,
		Title:    in.Title,
		Year:     in.Year,
		Country:  in.Country,
		FileSize: int64(len(in.Text)),
	}
	return im.importDocument(ctx, c, in.Text)
}

func (im *Importer) importDocument(ctx context.Context, c *models.Constitution, text string) (*ImportResult, error) {
	doc := im.segmenter.SegmentDocument(text)

	if c.Title == "" {
		c.Title = guessTitle(text, c.Filename)
	}
	if c.Year == 0 {
		c.Year = guessYear(c.Title + " " + c.Filename)
	}
	c.Content = text
	c.Summary = utils.Truncate(Preprocess(im.segmenter.preamble(text)), summaryChars)
	c.KeyTopics = keyTopics(doc.Articles)

	created := false
	existing, err := im.storage.GetConstitution(ctx, c.ID)
	switch {
	case err == nil:
		c.IsActive = existing.IsActive
		c.Status = existing.Status
		c.Description = existing.Description
		if c.Country == "" {
			c.Country = existing.Country
		}
		if err := im.storage.UpdateConstitution(ctx, c); err != nil {
			return nil, fmt.Errorf("update constitution: %w", err)
		}
	case errors.Is(err, storage.ErrNotFound):
		c.IsActive = true
		c.Status = models.StatusActive
		if err := im.storage.CreateConstitution(ctx, c); err != nil {
			return nil, fmt.Errorf("create constitution: %w", err)
		}
		created = true
	default:
		return nil, fmt.Errorf("get constitution: %w", err)
	}

	for i := range doc.Articles {
		doc.Articles[i].ConstitutionID = c.ID
		doc.Articles[i].IsActive = c.IsActive
	}
	if err := im.storage.ReplaceArticles(ctx, c.ID, doc.Articles, doc.Structure); err != nil {
		return nil, fmt.Errorf("store articles: %w", err)
	}
	if err := im.syncIndex(ctx, c.ID, c.IsActive, doc.Articles); err != nil {
		return nil, err
	}

	im.logger.Info("constitution imported",
		zap.String("id", c.ID),
		zap.String("filename", c.Filename),
		zap.Int("articles", len(doc.Articles)),
		zap.Int("structure", len(doc.Structure)),
		zap.Bool("created", created))
	return &ImportResult{
		ConstitutionID: c.ID,
		Title:          c.Title,
		Articles:       len(doc.Articles),
		Structure:      len(doc.Structure),
		Created:        created,
	}, nil
}

// ImportDirectory imports every file under dir whose extension is allowed. A failing
// file does not stop the walk; the failures are joined into the returned error.
func (im *Importer) ImportDirectory(ctx context.Context, dir string, allowedExts []string) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}

	var (
		n    int
		errs []error
	)
	walkErr := filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		// resolve symlinks; only regular files are imported
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if _, err := im.ImportFile(ctx, path, allowedExts); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		n++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}
	return n, errors.Join(errs...)
}

// Deactivate hides a constitution and its articles from retrieval.
func (im *Importer) Deactivate(ctx context.Context, id string) error {
	return im.setActive(ctx, id, false)
}

// Activate makes a deactivated constitution retrievable again.
func (im *Importer) Activate(ctx context.Context, id string) error {
	return im.setActive(ctx, id, true)
}

func (im *Importer) setActive(ctx context.Context, id string, active bool) error {
	if err := im.storage.SetConstitutionActive(ctx, id, active); err != nil {
		return fmt.Errorf("set constitution active=%t: %w", active, err)
	}
	articles, err := im.storage.ListArticles(ctx, id)
	if err != nil {
		return fmt.Errorf("list articles: %w", err)
	}
	if err := im.syncIndex(ctx, id, active, articles); err != nil {
		return err
	}
	im.logger.Info("constitution activation changed", zap.String("id", id), zap.Bool("active", active))
	return nil
}

// RemoveFile deactivates the constitution imported from path, if any.
func (im *Importer) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	err = im.Deactivate(ctx, fileid.ForPath(absPath))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// Delete removes a constitution from the index and from storage.
func (im *Importer) Delete(ctx context.Context, id string) error {
	if im.index != nil {
		if err := im.index.DeleteConstitution(ctx, id); err != nil {
			return fmt.Errorf("failed to delete from article index: %w", err)
		}
	}
	if err := im.storage.DeleteConstitution(ctx, id); err != nil {
		return fmt.Errorf("failed to delete constitution: %w", err)
	}
	im.corpusChanged(ctx)
	im.logger.Info("constitution deleted", zap.String("id", id))
	return nil
}

// Reindex rebuilds the article index from the active constitutions in storage.
// It returns the number of constitutions indexed.
func (im *Importer) Reindex(ctx context.Context) (int, error) {
	if im.index == nil {
		return 0, nil
	}
	n := 0
	for offset := 0; ; offset += listPageSize {
		page, err := im.storage.ListConstitutions(ctx, offset, listPageSize)
		if err != nil {
			return n, fmt.Errorf("list constitutions: %w", err)
		}
		for _, c := range page {
			if !c.IsActive {
				continue
			}
			articles, err := im.storage.ListActiveArticles(ctx, c.ID)
			if err != nil {
				return n, fmt.Errorf("list articles of %s: %w", c.ID, err)
			}
			if err := im.index.IndexArticles(ctx, c.ID, articles); err != nil {
				return n, fmt.Errorf("index articles of %s: %w", c.ID, err)
			}
			n++
		}
		if len(page) < listPageSize {
			break
		}
	}
	im.invalidate()
	return n, nil
}

func (im *Importer) syncIndex(ctx context.Context, id string, active bool, articles []models.Article) error {
	if im.index != nil {
		var err error
		if active {
			err = im.index.IndexArticles(ctx, id, articles)
		} else {
			err = im.index.DeleteConstitution(ctx, id)
		}
		if err != nil {
			return fmt.Errorf("failed to update article index: %w", err)
		}
	}
	im.corpusChanged(ctx)
	return nil
}

func (im *Importer) invalidate() {
	if im.vocab != nil {
		im.vocab.Invalidate()
	}
}

// corpusChanged is called after every import, activation change or delete.
// A failed clear is logged: the write itself already succeeded.
func (im *Importer) corpusChanged(ctx context.Context) {
	im.invalidate()
	if im.responses == nil {
		return
	}
	if err := im.responses.Clear(ctx); err != nil {
		im.logger.Warn("failed to clear response cache", zap.Error(err))
	}
}

func (im *Importer) extractText(path string) (string, error) {
	if im.extractor != nil {
		return im.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// preamble is the text before the first article header.
func (s *Segmenter) preamble(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if _, _, ok := s.matchHeader(strings.TrimSpace(line)); ok {
			return strings.Join(lines[:i], "\n")
		}
	}
	return text
}

// guessTitle returns the first line naming a constitution, else the file name.
func guessTitle(text, filename string) string {
	for i, line := range strings.Split(text, "\n") {
		if i > 40 {
			break
		}
		line = Preprocess(line)
		if strings.Contains(strings.ToLower(line), "constitution") && len([]rune(line)) <= 120 {
			return line
		}
	}
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(name))
}

func guessYear(s string) int {
	m := yearRe.FindString(s)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

// keyTopics lists the article categories other than general, in first-seen order.
func keyTopics(articles []models.Article) []string {
	seen := make(map[string]bool)
	topics := []string{}
	for _, a := range articles {
		if a.Category == "" || a.Category == CategoryGeneral || seen[a.Category] {
			continue
		}
		seen[a.Category] = true
		topics = append(topics, a.Category)
	}
	return topics
}
