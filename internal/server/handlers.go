package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/storage"
)

const maxJSONBody = 1 << 20

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	answer := s.assistant.Ask(r.Context(), req)
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": s.assistant.Suggestions()})
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	title := ""
	active, err := s.storage.SearchConstitutions(r.Context(), models.ConstitutionSearch{ActiveOnly: true, Limit: 1})
	if err != nil {
		s.logger.Warn("welcome: active constitution lookup failed", zap.Error(err))
	} else if len(active) > 0 {
		title = active[0].Title
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     s.assistant.Welcome(title),
		"suggestions": s.assistant.Suggestions(),
	})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	turns := s.sessions.RecentHistory(key, limit)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"key":   key,
		"state": s.sessions.State(key).String(),
		"turns": turns,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s.sessions.Delete(key)
	s.logger.Debug("session deleted", zap.String("key", key))
	s.respondJSON(w, http.StatusOK, map[string]string{"key": key, "status": "deleted"})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.responses.Stats(r.Context())
	if err != nil {
		s.logger.Error("cache stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.responses.Clear(r.Context()); err != nil {
		s.logger.Error("cache clear failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	constitutions, err := s.storage.CountConstitutions(ctx)
	if err != nil {
		s.logger.Error("status: count constitutions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	articles, err := s.storage.CountActiveArticles(ctx)
	if err != nil {
		s.logger.Error("status: count articles failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"constitutions":   constitutions,
		"active_articles": articles,
		"sessions":        s.sessions.Len(),
	}
	if s.index != nil {
		if n, err := s.index.DocCount(); err == nil {
			resp["indexed_articles"] = n
		}
	}
	if stats, err := s.responses.Stats(ctx); err == nil {
		resp["cache"] = stats
	}
	if s.watch != nil {
		resp["watch_directories"] = s.watch.Directories()
	}

	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"llm_provider":     s.config.LLM.Provider,
			"llm_model":        s.config.LLM.Model,
			"cache_backend":    s.config.Cache.Backend,
			"database_path":    s.config.Storage.DatabasePath,
			"bleve_index_path": s.config.Storage.BleveIndexPath,
			"upload_dir":       s.config.Storage.UploadDir,
		}
		diskBytes, err := storage.DiskUsageBytes(
			s.config.Storage.DatabasePath,
			s.config.Storage.BleveIndexPath,
			s.config.Storage.UploadDir,
		)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// decodeJSON reads a bounded JSON body into v and answers 400 when it cannot.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// respondStorageError maps storage.ErrNotFound to 404 and anything else to 500.
func (s *Server) respondStorageError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, what+" not found")
		return
	}
	s.logger.Error(what+" request failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
