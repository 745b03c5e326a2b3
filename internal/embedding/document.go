package embedding

import (
	"context"

	"github.com/deepfates/silicon/pkg/utils"
)

// DocumentEmbedder turns a whole document into a single vector: chunk the
// text, make one batched provider call, average multi-segment results
// element-wise, and round each scalar to a fixed decimal precision.
type DocumentEmbedder struct {
	embedder  Embedder
	chunker   *Chunker
	precision int
	cache     *Cache
}

// NewDocumentEmbedder wraps embedder with chunking, rounding, and an LRU
// cache of cacheSize entries (0 disables caching).
func NewDocumentEmbedder(embedder Embedder, maxChunkLen, precision, cacheSize int) *DocumentEmbedder {
	d := &DocumentEmbedder{
		embedder:  embedder,
		chunker:   NewChunker(maxChunkLen),
		precision: precision,
	}
	if cacheSize > 0 {
		d.cache = NewCache(cacheSize)
	}
	return d
}

// Embed returns one vector for the document with the given label and text.
// Empty text short-circuits: no provider call is made and a nil vector is
// returned with no error. Provider failures surface as *ProviderError.
func (d *DocumentEmbedder) Embed(ctx context.Context, label, text string) ([]float32, error) {
	if text == "" {
		return nil, nil
	}
	key := label + "\x00" + text
	if d.cache != nil {
		if vec, ok := d.cache.Get(key); ok {
			return vec, nil
		}
	}

	segments := d.chunker.Split(label, text)
	vectors, err := d.embedder.EmbedBatch(ctx, segments)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(segments) {
		return nil, &ProviderError{Err: errVectorCountMismatch(len(segments), len(vectors))}
	}

	vec := utils.MeanVectors(vectors)
	utils.RoundVector(vec, d.precision)
	if d.cache != nil {
		d.cache.Set(key, vec)
	}
	return vec, nil
}

// Dimensions returns the provider's vector dimensionality.
func (d *DocumentEmbedder) Dimensions() int {
	return d.embedder.Dimensions()
}
