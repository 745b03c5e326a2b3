package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/deepfates/silicon/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests. It returns a fixed-
// dimension unit vector derived from the text hash so the same text always
// gets the same embedding.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder producing deterministic embeddings of
// the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// EmbedBatch embeds each text deterministically.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *MockEmbedder) embedOne(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := int(h.Sum32())
	vec := make([]float32, e.dimensions)
	for i := range vec {
		vec[i] = float32(math.Sin(float64(seed*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(vec)
	return vec
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
