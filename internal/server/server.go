// Package server provides the HTTP API for Silicon.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/deepfates/silicon/internal/config"
	"github.com/deepfates/silicon/internal/indexer"
	"github.com/deepfates/silicon/internal/query"
	"github.com/deepfates/silicon/internal/store"
)

// Server is the HTTP server for the Silicon API.
type Server struct {
	orchestrator *query.Orchestrator
	indexer      *indexer.Indexer
	store        store.RecordStore
	config       *config.Config
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	orchestrator *query.Orchestrator,
	idx *indexer.Indexer,
	recordStore store.RecordStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		orchestrator: orchestrator,
		indexer:      idx,
		store:        recordStore,
		config:       cfg,
		logger:       logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/similar", s.handleSimilar)
	r.Post("/api/v1/reindex", s.handleReindex)
	r.Get("/api/v1/records", s.handleGetRecord)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
