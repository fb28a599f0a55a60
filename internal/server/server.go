// Package server provides the HTTP API for ronbun.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/config"
	"github.com/hyperjump/ronbun/internal/explainer"
	"github.com/hyperjump/ronbun/internal/rag"
	"github.com/hyperjump/ronbun/internal/storage"
	"github.com/hyperjump/ronbun/internal/summarizer"
	"github.com/hyperjump/ronbun/internal/translator"
)

// Server is the HTTP server for the ronbun API.
type Server struct {
	storage    storage.Storage
	indexer    *rag.Indexer
	retriever  *rag.Retriever
	gateway    *rag.Gateway
	summarizer *summarizer.Summarizer
	explainer  *explainer.Explainer
	translator *translator.Translator
	cfg        *config.Config
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	st storage.Storage,
	indexer *rag.Indexer,
	retriever *rag.Retriever,
	gateway *rag.Gateway,
	sum *summarizer.Summarizer,
	exp *explainer.Explainer,
	trans *translator.Translator,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		storage:    st,
		indexer:    indexer,
		retriever:  retriever,
		gateway:    gateway,
		summarizer: sum,
		explainer:  exp,
		translator: trans,
		cfg:        cfg,
		logger:     logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/projects", s.handleCreateProject)
		r.Get("/projects", s.handleListProjects)
		r.Get("/projects/{id}", s.handleGetProject)
		r.Delete("/projects/{id}", s.handleDeleteProject)

		r.Post("/projects/{id}/papers", s.handleUploadPaper)
		r.Get("/projects/{id}/papers", s.handleListPapers)
		r.Post("/projects/{id}/index", s.handleReindexProject)
		r.Post("/projects/{id}/search", s.handleSearch)
		r.Post("/projects/{id}/answer", s.handleAnswer)

		r.Get("/papers/{id}", s.handleGetPaper)
		r.Delete("/papers/{id}", s.handleDeletePaper)
		r.Post("/papers/{id}/summary", s.handleCreateSummary)
		r.Get("/papers/{id}/summary", s.handleGetSummary)

		r.Post("/explain", s.handleExplain)
		r.Post("/translate", s.handleTranslate)

		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
