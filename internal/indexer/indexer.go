// Package indexer reconciles the record store against the vault: additions
// and modifications are re-embedded, deletions are garbage collected.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deepfates/silicon/internal/embedding"
	"github.com/deepfates/silicon/internal/models"
	"github.com/deepfates/silicon/internal/store"
	"github.com/deepfates/silicon/internal/vault"
)

// Indexer drives re-embedding of stale documents and removal of records for
// documents that no longer exist.
type Indexer struct {
	vault    vault.Vault
	store    store.RecordStore
	embedder *embedding.DocumentEmbedder
	logger   *zap.Logger // optional; when set, logs pass events
	running  atomic.Bool
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets a logger for pass progress and skipped-document events.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) { idx.logger = l }
}

// New creates an indexer with the given dependencies.
func New(v vault.Vault, s store.RecordStore, e *embedding.DocumentEmbedder, opts ...Option) *Indexer {
	idx := &Indexer{vault: v, store: s, embedder: e}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Running reports whether a reconciliation pass is in flight.
func (idx *Indexer) Running() bool {
	return idx.running.Load()
}

// Reindex runs one full reconciliation pass. Only one pass runs at a time: a
// trigger arriving while a pass is in flight is dropped (never queued) and
// Reindex returns (false, nil). A single document's embedding failure is
// logged and skipped; storage failures abort the pass.
func (idx *Indexer) Reindex(ctx context.Context) (bool, error) {
	if !idx.running.CompareAndSwap(false, true) {
		if idx.logger != nil {
			idx.logger.Debug("reindex trigger dropped, pass already running")
		}
		return false, nil
	}
	defer idx.running.Store(false)

	passID := uuid.New().String()[:8]
	start := time.Now()
	docs, err := idx.vault.List(ctx)
	if err != nil {
		return true, fmt.Errorf("list vault: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("reindex pass started", zap.String("pass", passID), zap.Int("documents", len(docs)))
	}

	embedded, skipped := 0, 0
	present := make(map[string]bool, len(docs))
	for _, doc := range docs {
		present[doc.Path] = true
		changed, err := idx.refresh(ctx, doc)
		if err != nil {
			var perr *embedding.ProviderError
			if errors.As(err, &perr) {
				skipped++
				if idx.logger != nil {
					idx.logger.Warn("embedding failed, keeping prior record",
						zap.String("pass", passID), zap.String("path", doc.Path), zap.Error(err))
				}
				continue
			}
			return true, err
		}
		if changed {
			embedded++
		}
	}

	removed, err := idx.collectGarbage(ctx, present)
	if err != nil {
		return true, err
	}

	if idx.logger != nil {
		idx.logger.Info("reindex pass finished",
			zap.String("pass", passID),
			zap.Int("embedded", embedded),
			zap.Int("skipped", skipped),
			zap.Int("removed", removed),
			zap.Duration("elapsed", time.Since(start)))
	}
	return true, nil
}

// refresh re-embeds doc when its record is absent or its stamp differs.
// Returns whether a new record was written.
func (idx *Indexer) refresh(ctx context.Context, doc models.DocumentInfo) (bool, error) {
	rec, err := idx.store.Get(ctx, doc.Path)
	if err == nil && rec.ModifiedAt == doc.ModifiedAt {
		return false, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	fresh, err := idx.embedAndPut(ctx, doc)
	if err != nil {
		return false, err
	}
	return fresh != nil, nil
}

// RefreshDocument brings a single document's record up to date and returns
// it. Used by the query path; not guarded by the pass flag. Returns
// vault.ErrNotFound when the document is not in the (non-ignored) vault, and
// a nil record when the document is empty and was never embedded.
func (idx *Indexer) RefreshDocument(ctx context.Context, docPath string) (*models.DocumentRecord, error) {
	doc, err := idx.vault.Stat(ctx, docPath)
	if err != nil {
		return nil, err
	}
	rec, err := idx.store.Get(ctx, doc.Path)
	if err == nil && rec.ModifiedAt == doc.ModifiedAt {
		return rec, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	prior := rec
	fresh, err := idx.embedAndPut(ctx, doc)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		// Empty document: no provider call was made, prior state stands.
		return prior, nil
	}
	return fresh, nil
}

// embedAndPut embeds the document's current text and writes a fresh record
// with cleared neighbors. A nil record with nil error means the text was
// empty and nothing was written.
func (idx *Indexer) embedAndPut(ctx context.Context, doc models.DocumentInfo) (*models.DocumentRecord, error) {
	text, err := idx.vault.Read(ctx, doc.Path)
	if err != nil {
		return nil, err
	}
	vec, err := idx.embedder.Embed(ctx, docLabel(doc.Path), text)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		return nil, nil
	}
	rec := &models.DocumentRecord{Path: doc.Path, ModifiedAt: doc.ModifiedAt, Embedding: vec}
	if err := idx.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// collectGarbage deletes records whose identity is no longer present in the
// current non-ignored vault.
func (idx *Indexer) collectGarbage(ctx context.Context, present map[string]bool) (int, error) {
	paths, err := idx.store.Paths(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, p := range paths {
		if present[p] {
			continue
		}
		if err := idx.store.Delete(ctx, p); err != nil {
			return removed, err
		}
		removed++
		if idx.logger != nil {
			idx.logger.Debug("record removed, document gone from vault", zap.String("path", p))
		}
	}
	return removed, nil
}

// docLabel returns the document title used as the embedding label: the base
// name without the markdown extension.
func docLabel(docPath string) string {
	return strings.TrimSuffix(path.Base(docPath), ".md")
}
