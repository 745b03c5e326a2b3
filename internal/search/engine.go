// Package search implements exhaustive cosine top-k search over stored records.
package search

import (
	"context"
	"math"
	"sort"

	"github.com/deepfates/silicon/internal/models"
	"github.com/deepfates/silicon/internal/store"
)

// Engine scans every stored embedding for each query. O(n·d) per query;
// exact top-k is preferred over approximate retrieval at this scale.
type Engine struct {
	store store.RecordStore
}

// NewEngine creates a search engine over the given record store.
func NewEngine(s store.RecordStore) *Engine {
	return &Engine{store: s}
}

// Search returns up to k stored documents most similar to query, sorted
// descending by similarity. Records without an embedding are skipped. Ties
// are broken by scan order: the first-seen record keeps its slot.
func (e *Engine) Search(ctx context.Context, query []float32, k int) ([]models.Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	best := make([]models.Neighbor, 0, k)
	err := e.store.Scan(ctx, func(rec *models.DocumentRecord) error {
		if len(rec.Embedding) == 0 {
			return nil
		}
		sim := CosineSimilarity(query, rec.Embedding)
		if len(best) < k {
			best = append(best, models.Neighbor{Path: rec.Path, Similarity: sim})
			return nil
		}
		worst := 0
		for i := 1; i < len(best); i++ {
			if best[i].Similarity < best[worst].Similarity {
				worst = i
			}
		}
		if sim > best[worst].Similarity {
			best[worst] = models.Neighbor{Path: rec.Path, Similarity: sim}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(best, func(i, j int) bool { return best[i].Similarity > best[j].Similarity })
	return best, nil
}

// CosineSimilarity returns the cosine similarity of a and b clamped to [0,1].
// Mismatched lengths and zero-norm vectors yield 0 rather than an error so an
// index scan stays total.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(0, math.Min(1, sim))
}
