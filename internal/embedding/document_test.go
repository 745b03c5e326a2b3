package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
)

// fakeEmbedder records batch calls and replays canned vectors.
type fakeEmbedder struct {
	calls    int
	batches  [][]string
	vectors  [][]float32
	err      error
	shortOne bool
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, &ProviderError{Err: f.err}
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	if f.shortOne && len(out) > 0 {
		out = out[:len(out)-1]
	}
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 2 }
func (f *fakeEmbedder) Close() error    { return nil }

func TestEmbedEmptyText(t *testing.T) {
	fake := &fakeEmbedder{}
	d := NewDocumentEmbedder(fake, 2000, 6, 0)
	vec, err := d.Embed(context.Background(), "Title", "")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vec != nil {
		t.Errorf("expected nil vector, got %v", vec)
	}
	if fake.calls != 0 {
		t.Errorf("provider called %d times for empty text", fake.calls)
	}
}

func TestEmbedSingleBatchCall(t *testing.T) {
	fake := &fakeEmbedder{}
	d := NewDocumentEmbedder(fake, 10, 6, 0)
	// Long enough to split into several segments.
	_, err := d.Embed(context.Background(), "abc", "0123456789ABCDEFGHIJ")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("provider called %d times, want 1", fake.calls)
	}
	if len(fake.batches[0]) < 2 {
		t.Errorf("expected multiple segments in one batch, got %d", len(fake.batches[0]))
	}
}

func TestEmbedAveragesSegments(t *testing.T) {
	fake := &fakeEmbedder{vectors: [][]float32{{1, 0}, {0, 1}}}
	d := NewDocumentEmbedder(fake, 10, 6, 0)
	vec, err := d.Embed(context.Background(), "abc", "0123456789ABC")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(fake.batches[0]) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(fake.batches[0]))
	}
	if math.Abs(float64(vec[0])-0.5) > 1e-6 || math.Abs(float64(vec[1])-0.5) > 1e-6 {
		t.Errorf("mean: %v", vec)
	}
}

func TestEmbedRoundsToPrecision(t *testing.T) {
	fake := &fakeEmbedder{vectors: [][]float32{{0.1234567, 0.7654321}}}
	d := NewDocumentEmbedder(fake, 2000, 3, 0)
	vec, err := d.Embed(context.Background(), "t", "x")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if math.Abs(float64(vec[0])-0.123) > 1e-6 || math.Abs(float64(vec[1])-0.765) > 1e-6 {
		t.Errorf("rounded: %v", vec)
	}
}

func TestEmbedProviderError(t *testing.T) {
	cause := errors.New("connection refused")
	fake := &fakeEmbedder{err: cause}
	d := NewDocumentEmbedder(fake, 2000, 6, 0)
	_, err := d.Embed(context.Background(), "t", "x")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ProviderError, got %T: %v", err, err)
	}
	if !errors.Is(err, cause) {
		t.Error("ProviderError should unwrap to its cause")
	}
}

func TestEmbedVectorCountMismatch(t *testing.T) {
	fake := &fakeEmbedder{shortOne: true}
	d := NewDocumentEmbedder(fake, 10, 6, 0)
	_, err := d.Embed(context.Background(), "abc", "0123456789ABC")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ProviderError, got %T: %v", err, err)
	}
}

func TestEmbedCacheHit(t *testing.T) {
	fake := &fakeEmbedder{}
	d := NewDocumentEmbedder(fake, 2000, 6, 8)
	ctx := context.Background()

	first, err := d.Embed(ctx, "Title", "same text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := d.Embed(ctx, "Title", "same text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("provider called %d times, want 1", fake.calls)
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Errorf("cache returned different vector: %v vs %v", first, second)
	}

	// Different text misses.
	if _, err := d.Embed(ctx, "Title", "other text"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("provider called %d times, want 2", fake.calls)
	}
}

func TestMockEmbedderDeterministic(t *testing.T) {
	m := NewMockEmbedder(16)
	a, err := m.EmbedBatch(context.Background(), []string{"same", "same", "other"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(a) != 3 || len(a[0]) != 16 {
		t.Fatalf("shape: %d vectors", len(a))
	}
	for i := range a[0] {
		if a[0][i] != a[1][i] {
			t.Fatal("same text produced different vectors")
		}
	}
	same := true
	for i := range a[0] {
		if a[0][i] != a[2][i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}
