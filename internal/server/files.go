package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/extract"
	"github.com/hyperjump/konsti/internal/keyword"
	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/search"
	"github.com/hyperjump/konsti/internal/storage"
)

const searchExcerptChars = 300

// ArticleHit is an article search result.
type ArticleHit struct {
	ConstitutionID string  `json:"constitution_id"`
	Article        string  `json:"article"`
	Score          float64 `json:"score"`
	Excerpt        string  `json:"excerpt,omitempty"`
	Category       string  `json:"category,omitempty"`
}

// handleUpload stores a multipart "file" in the upload directory and imports it.
// Optional form fields title, year and country override the guessed metadata.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.config.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !extract.Supported(filepath.Ext(name)) {
		s.respondError(w, http.StatusUnsupportedMediaType,
			"unsupported file type; accepted: "+strings.Join(extract.SupportedExtensions, ", "))
		return
	}
	dest, err := storage.UploadPath(s.config.Storage.UploadDir, name)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := writeUpload(dest, file); err != nil {
		s.logger.Error("upload write failed", zap.String("path", dest), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	ctx := r.Context()
	res, err := s.importer.ImportFile(ctx, dest, nil)
	if err != nil {
		s.logger.Error("upload import failed", zap.String("path", dest), zap.Error(err))
		_ = os.Remove(dest)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.applyUploadFields(r, res.ConstitutionID); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("constitution uploaded", zap.String("file", name), zap.String("id", res.ConstitutionID))
	s.respondJSON(w, http.StatusCreated, res)
}

func writeUpload(dest string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *Server) applyUploadFields(r *http.Request, id string) error {
	title := strings.TrimSpace(r.FormValue("title"))
	country := strings.TrimSpace(r.FormValue("country"))
	yearStr := strings.TrimSpace(r.FormValue("year"))
	if title == "" && country == "" && yearStr == "" {
		return nil
	}
	c, err := s.storage.GetConstitution(r.Context(), id)
	if err != nil {
		return err
	}
	if title != "" {
		c.Title = title
	}
	if country != "" {
		c.Country = country
	}
	if yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return errors.New("year must be an integer")
		}
		c.Year = year
	}
	return s.storage.UpdateConstitution(r.Context(), c)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := storage.ListFiles(s.config.Storage.UploadDir)
	if err != nil {
		s.logger.Error("list files failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (s *Server) handleServeFile(w http.ResponseWriter, r *http.Request) {
	path, ok := s.uploadedFile(w, r)
	if !ok {
		return
	}
	http.ServeFile(w, r, path)
}

// handleDeleteFile removes an uploaded file and deactivates the constitution imported from it.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	path, ok := s.uploadedFile(w, r)
	if !ok {
		return
	}
	if err := os.Remove(path); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.importer.RemoveFile(r.Context(), path); err != nil {
		s.logger.Warn("deactivate removed file failed", zap.String("path", path), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"filename": filepath.Base(path), "status": "deleted"})
}

func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (string, bool) {
	path, err := storage.UploadPath(s.config.Storage.UploadDir, chi.URLParam(r, "filename"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		s.respondError(w, http.StatusNotFound, "file not found")
		return "", false
	}
	return path, true
}

// handleSearchArticles runs a full-text query over the indexed articles.
func (s *Server) handleSearchArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := models.ArticleSearch{Query: q.Get("q")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		req.Limit = n
	}
	if v := q.Get("fuzzy"); v != "" {
		fuzzy, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "fuzzy must be a boolean")
			return
		}
		req.Fuzzy = fuzzy
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var opts *keyword.SearchOptions
	if req.Fuzzy {
		opts = &keyword.SearchOptions{FuzzyEnabled: true}
	}
	hits, err := s.index.Search(r.Context(), req.Query, req.Limit, opts)
	if err != nil {
		s.logger.Error("article search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]ArticleHit, 0, len(hits))
	for _, h := range hits {
		hit := ArticleHit{ConstitutionID: h.ConstitutionID, Article: "Article " + h.Number, Score: h.Score}
		if a, err := s.storage.GetArticleByNumber(r.Context(), h.ConstitutionID, h.Number); err == nil {
			hit.Article = a.Reference()
			hit.Excerpt = search.Highlight(a.Content, req.Query, searchExcerptChars)
			hit.Category = a.Category
		}
		results = append(results, hit)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   req.Query,
		"results": results,
		"total":   len(results),
	})
}
