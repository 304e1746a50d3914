// Package server provides the HTTP API for konsti.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/assistant"
	"github.com/hyperjump/konsti/internal/cache"
	"github.com/hyperjump/konsti/internal/config"
	"github.com/hyperjump/konsti/internal/indexer"
	"github.com/hyperjump/konsti/internal/keyword"
	"github.com/hyperjump/konsti/internal/session"
	"github.com/hyperjump/konsti/internal/storage"
)

// DirectoryLister reports the watched drop directories.
type DirectoryLister interface {
	Directories() []string
}

// Services are the components exposed by the API.
type Services struct {
	Assistant *assistant.Assistant
	Importer  *indexer.Importer
	Storage   storage.Storage
	Index     keyword.ArticleIndex
	Responses *cache.ResponseCache
	Sessions  *session.Store
	// Watch is nil when no drop directory is configured.
	Watch DirectoryLister
}

// Server is the HTTP server for the konsti API.
type Server struct {
	assistant *assistant.Assistant
	importer  *indexer.Importer
	storage   storage.Storage
	index     keyword.ArticleIndex
	responses *cache.ResponseCache
	sessions  *session.Store
	watch     DirectoryLister
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(svc Services, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		assistant: svc.Assistant,
		importer:  svc.Importer,
		storage:   svc.Storage,
		index:     svc.Index,
		responses: svc.Responses,
		sessions:  svc.Sessions,
		watch:     svc.Watch,
		config:    cfg,
		logger:    logger,
	}
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5, "application/json"))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Post("/chat", s.handleChat)
		r.Get("/chat/suggestions", s.handleSuggestions)
		r.Get("/chat/welcome", s.handleWelcome)

		r.Get("/sessions/{key}/history", s.handleSessionHistory)
		r.Delete("/sessions/{key}", s.handleDeleteSession)

		r.Get("/cache/stats", s.handleCacheStats)
		r.Delete("/cache", s.handleClearCache)

		r.Route("/constitutions", func(r chi.Router) {
			r.Get("/", s.handleListConstitutions)
			r.Post("/", s.handleCreateConstitution)
			r.Get("/years", s.handleListYears)
			r.Post("/search", s.handleSearchConstitutions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetConstitution)
				r.Put("/", s.handleUpdateConstitution)
				r.Delete("/", s.handleDeleteConstitution)
				r.Post("/deactivate", s.handleDeactivateConstitution)
				r.Post("/activate", s.handleActivateConstitution)
				r.Get("/articles", s.handleListArticles)
				r.Get("/articles/{number}", s.handleGetArticle)
				r.Get("/structure", s.handleGetStructure)
			})
		})

		r.Get("/articles/search", s.handleSearchArticles)

		r.Post("/upload", s.handleUpload)
		r.Get("/files", s.handleListFiles)
		r.Get("/files/{filename}", s.handleServeFile)
		r.Head("/files/{filename}", s.handleServeFile)
		r.Delete("/files/{filename}", s.handleDeleteFile)
	})
	return r
}

// logRequests logs one line per request with the request id set by middleware.RequestID.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
