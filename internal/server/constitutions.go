package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/fileid"
	"github.com/hyperjump/konsti/internal/indexer"
	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/storage"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

func (s *Server) handleListConstitutions(w http.ResponseWriter, r *http.Request) {
	offset, limit, ok := s.pagination(w, r)
	if !ok {
		return
	}
	list, err := s.storage.ListConstitutions(r.Context(), offset, limit)
	if err != nil {
		s.respondStorageError(w, err, "constitutions")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"constitutions": list,
		"offset":        offset,
		"limit":         limit,
	})
}

func (s *Server) handleCreateConstitution(w http.ResponseWriter, r *http.Request) {
	var in models.ConstitutionInput
	if !s.decodeJSON(w, r, &in) {
		return
	}
	if err := models.Validate(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()
	if _, err := s.storage.GetConstitutionByFilename(ctx, in.Filename); err == nil {
		s.respondError(w, http.StatusConflict, "a constitution with this filename already exists")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.respondStorageError(w, err, "constitution")
		return
	}

	res, err := s.importer.ImportText(ctx, textInput(fileid.New(), &in))
	if err != nil {
		s.logger.Error("create constitution failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	c, err := s.applyInput(r, res.ConstitutionID, &in)
	if err != nil {
		s.respondStorageError(w, err, "constitution")
		return
	}
	s.respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetConstitution(w http.ResponseWriter, r *http.Request) {
	c, err := s.storage.GetConstitution(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStorageError(w, err, "constitution")
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

// handleUpdateConstitution replaces the metadata of a constitution. New content is
// segmented again and replaces the stored articles.
func (s *Server) handleUpdateConstitution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in models.ConstitutionInput
	if !s.decodeJSON(w, r, &in) {
		return
	}
	if err := models.Validate(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	existing, err := s.storage.GetConstitution(r.Context(), id)
	if err != nil {
		s.respondStorageError(w, err, "constitution")
		return
	}
	if in.Content != "" && in.Content != existing.Content {
		if _, err := s.importer.ImportText(r.Context(), textInput(id, &in)); err != nil {
			s.logger.Error("re-import constitution failed", zap.String("id", id), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	c, err := s.applyInput(r, id, &in)
	if err != nil {
		s.respondStorageError(w, err, "constitution")
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteConstitution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.importer.Delete(r.Context(), id); err != nil {
		s.respondStorageError(w, err, "constitution")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleDeactivateConstitution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.importer.Deactivate(r.Context(), id); err != nil {
		s.respondStorageError(w, err, "constitution")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deactivated"})
}

func (s *Server) handleActivateConstitution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.importer.Activate(r.Context(), id); err != nil {
		s.respondStorageError(w, err, "constitution")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "activated"})
}

func (s *Server) handleListYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.storage.ListYears(r.Context())
	if err != nil {
		s.respondStorageError(w, err, "years")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"years": years})
}

func (s *Server) handleSearchConstitutions(w http.ResponseWriter, r *http.Request) {
	var q models.ConstitutionSearch
	if !s.decodeJSON(w, r, &q) {
		return
	}
	if err := models.Validate(&q); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := s.storage.SearchConstitutions(r.Context(), q)
	if err != nil {
		s.respondStorageError(w, err, "constitutions")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"constitutions": list, "total": len(list)})
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.storage.GetConstitution(r.Context(), id); err != nil {
		s.respondStorageError(w, err, "constitution")
		return
	}
	articles, err := s.storage.ListArticles(r.Context(), id)
	if err != nil {
		s.respondStorageError(w, err, "articles")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"articles": articles, "total": len(articles)})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.storage.GetArticleByNumber(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "number"))
	if err != nil {
		s.respondStorageError(w, err, "article")
		return
	}
	s.respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleGetStructure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.storage.GetConstitution(r.Context(), id); err != nil {
		s.respondStorageError(w, err, "constitution")
		return
	}
	nodes, err := s.storage.ListStructure(r.Context(), id)
	if err != nil {
		s.respondStorageError(w, err, "structure")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"structure": nodes})
}

// applyInput writes the metadata of in over the stored constitution id.
func (s *Server) applyInput(r *http.Request, id string, in *models.ConstitutionInput) (*models.Constitution, error) {
	c, err := s.storage.GetConstitution(r.Context(), id)
	if err != nil {
		return nil, err
	}
	c.Filename = in.Filename
	c.Title = in.Title
	if in.Description != "" {
		c.Description = in.Description
	}
	if in.Year != 0 {
		c.Year = in.Year
	}
	if in.Country != "" {
		c.Country = in.Country
	}
	if in.Status != "" {
		c.Status = in.Status
	}
	if in.Summary != "" {
		c.Summary = in.Summary
	}
	if in.KeyTopics != nil {
		c.KeyTopics = in.KeyTopics
	}
	if err := s.storage.UpdateConstitution(r.Context(), c); err != nil {
		return nil, err
	}
	return c, nil
}

func textInput(id string, in *models.ConstitutionInput) indexer.TextInput {
	return indexer.TextInput{
		ID:       id,
		Filename: in.Filename,
		Title:    in.Title,
		Year:     in.Year,
		Country:  in.Country,
		Text:     in.Content,
	}
}

func (s *Server) pagination(w http.ResponseWriter, r *http.Request) (offset, limit int, ok bool) {
	limit = defaultPageSize
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return 0, 0, false
		}
		offset = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxPageSize {
			s.respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return 0, 0, false
		}
		limit = n
	}
	return offset, limit, true
}
