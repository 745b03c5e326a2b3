// Package embedding turns document text into fixed-length vectors via an
// OpenAI-compatible provider, with positional chunking and caching.
package embedding

import "context"

// Embedder produces vector embeddings for a batch of text segments.
// Implementations return a *ProviderError when the remote call fails so
// callers can distinguish a skippable provider outage from local faults.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ProviderError wraps a failure of the remote embedding provider: network,
// authentication, or a malformed response. No vector is produced; the caller
// must leave any existing record untouched.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "embedding provider: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
