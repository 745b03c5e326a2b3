package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint via
// langchaingo. The API key is an opaque credential passed through unchanged;
// the same client works against OpenAI and self-hosted compatible servers.
type OpenAIEmbedder struct {
	embedder   *embeddings.EmbedderImpl
	dimensions int
}

// NewOpenAIEmbedder creates a provider client. dimensions is the expected
// vector length; responses with a different length are rejected as malformed.
func NewOpenAIEmbedder(baseURL, model, apiKey string, dimensions int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		// langchaingo requires a token even for keyless compatible servers.
		apiKey = "placeholder"
	}
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithEmbeddingModel(model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("create provider client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &OpenAIEmbedder{embedder: embedder, dimensions: dimensions}, nil
}

// EmbedBatch embeds all texts in one provider round trip.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}
	if len(vectors) != len(texts) {
		return nil, &ProviderError{Err: errVectorCountMismatch(len(texts), len(vectors))}
	}
	for _, vec := range vectors {
		if e.dimensions > 0 && len(vec) != e.dimensions {
			return nil, &ProviderError{Err: fmt.Errorf("malformed response: vector has %d dimensions, expected %d", len(vec), e.dimensions)}
		}
	}
	return vectors, nil
}

// Dimensions returns the configured vector dimensionality.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

func errVectorCountMismatch(want, got int) error {
	return fmt.Errorf("malformed response: %d vectors for %d inputs", got, want)
}
