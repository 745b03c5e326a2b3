package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/deepfates/silicon/internal/query"
	"github.com/deepfates/silicon/internal/store"
)

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	s.logger.Debug("similar request", zap.String("path", path))
	neighbors, err := s.orchestrator.SimilarTo(r.Context(), path)
	if err != nil {
		if errors.Is(err, query.ErrNoActiveDocument) {
			s.respondError(w, http.StatusNotFound, "no active document")
			return
		}
		s.logger.Error("similar query failed", zap.String("path", path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, neighbors)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if s.indexer.Running() {
		s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "already_running"})
		return
	}
	go func() {
		ran, err := s.indexer.Reindex(context.Background())
		if err != nil {
			s.logger.Error("reindex pass failed", zap.Error(err))
		} else if !ran {
			s.logger.Debug("reindex trigger dropped")
		}
	}()
	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	rec, err := s.store.Get(r.Context(), path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "record not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"path":        rec.Path,
		"modified_at": rec.ModifiedAt,
		"dimensions":  len(rec.Embedding),
	}
	if rec.Neighbors != nil {
		resp["cached_neighbors"] = len(rec.Neighbors)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents":  count,
		"reindexing": s.indexer.Running(),
		"config": map[string]interface{}{
			"vault_root":    s.config.Vault.Root,
			"dimensions":    s.config.Embedding.Dimensions,
			"threshold":     s.config.Search.Threshold,
			"database_path": s.config.Storage.DatabasePath,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
