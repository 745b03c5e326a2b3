// Package query orchestrates similar-document lookups: freshness, cache
// short-circuit, scan, filtering, and cache write-back.
package query

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/deepfates/silicon/internal/indexer"
	"github.com/deepfates/silicon/internal/models"
	"github.com/deepfates/silicon/internal/search"
	"github.com/deepfates/silicon/internal/store"
	"github.com/deepfates/silicon/internal/vault"
)

// ErrNoActiveDocument indicates the query target cannot be resolved in the
// vault (or has nothing to embed). Surfaced as an absent result, not a failure.
var ErrNoActiveDocument = errors.New("no active document")

// Orchestrator answers "documents similar to D" queries.
type Orchestrator struct {
	vault      vault.Vault
	store      store.RecordStore
	indexer    *indexer.Indexer
	engine     *search.Engine
	threshold  float64
	candidates int
	logger     *zap.Logger // optional
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a logger for query debug events.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an orchestrator. threshold is the minimum similarity a neighbor
// must reach (the boundary value is kept); candidates is the oversampled k
// requested from the scan before filtering.
func New(v vault.Vault, s store.RecordStore, idx *indexer.Indexer, engine *search.Engine, threshold float64, candidates int, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		vault:      v,
		store:      s,
		indexer:    idx,
		engine:     engine,
		threshold:  threshold,
		candidates: candidates,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SimilarTo returns the documents most similar to the one at path, filtered
// by the similarity threshold and by existing link relations, sorted
// descending by similarity. The result is cached on the document's record and
// returned directly on repeat queries until the document is re-embedded.
func (o *Orchestrator) SimilarTo(ctx context.Context, path string) ([]models.Neighbor, error) {
	rec, err := o.indexer.RefreshDocument(ctx, path)
	if errors.Is(err, vault.ErrNotFound) {
		return nil, ErrNoActiveDocument
	}
	if err != nil {
		return nil, err
	}
	if rec == nil || len(rec.Embedding) == 0 {
		return nil, ErrNoActiveDocument
	}
	if rec.Neighbors != nil {
		// Cache is trusted only because re-embedding always clears it.
		if o.logger != nil {
			o.logger.Debug("similar query served from cache",
				zap.String("path", rec.Path), zap.Int("neighbors", len(rec.Neighbors)))
		}
		return rec.Neighbors, nil
	}

	candidates, err := o.engine.Search(ctx, rec.Embedding, o.candidates)
	if err != nil {
		return nil, err
	}
	outgoing, incoming, err := o.vault.Links(ctx, rec.Path)
	if err != nil {
		return nil, err
	}

	// Filter order: self, threshold, outgoing links, incoming links.
	filtered := make([]models.Neighbor, 0, len(candidates))
	for _, n := range candidates {
		if n.Path == rec.Path {
			continue
		}
		if n.Similarity < o.threshold {
			continue
		}
		if outgoing[n.Path] || incoming[n.Path] {
			continue
		}
		filtered = append(filtered, n)
	}

	rec.Neighbors = filtered
	if err := o.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	if o.logger != nil {
		o.logger.Debug("similar query scanned",
			zap.String("path", rec.Path),
			zap.Int("candidates", len(candidates)),
			zap.Int("neighbors", len(filtered)))
	}
	return filtered, nil
}
