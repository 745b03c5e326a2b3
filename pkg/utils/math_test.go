package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("expected [0.6 0.8], got %v", v)
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("expected unit norm, got %f", norm)
	}
}

func TestNormalizeL2Zero(t *testing.T) {
	v := []float32{0, 0, 0}
	NormalizeL2(v)
	for i, x := range v {
		if x != 0 {
			t.Errorf("element %d changed: %f", i, x)
		}
	}
}

func TestMeanVectors(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float32
		want    []float32
	}{
		{
			name:    "empty",
			vectors: nil,
			want:    nil,
		},
		{
			name:    "single vector is copied through",
			vectors: [][]float32{{1, 2, 3}},
			want:    []float32{1, 2, 3},
		},
		{
			name:    "two vectors",
			vectors: [][]float32{{1, 0, 2}, {3, 4, 0}},
			want:    []float32{2, 2, 1},
		},
		{
			name:    "three vectors",
			vectors: [][]float32{{1, 1}, {2, 2}, {3, 3}},
			want:    []float32{2, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeanVectors(tt.vectors)
			if len(got) != len(tt.want) {
				t.Fatalf("length %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(float64(got[i])-float64(tt.want[i])) > 1e-6 {
					t.Errorf("element %d: got %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMeanVectorsNotRenormalized(t *testing.T) {
	// Two opposing unit vectors average to a short vector; the mean must not
	// be scaled back up to unit length.
	got := MeanVectors([][]float32{{1, 0}, {0, 1}})
	if math.Abs(float64(got[0])-0.5) > 1e-6 || math.Abs(float64(got[1])-0.5) > 1e-6 {
		t.Errorf("expected [0.5 0.5], got %v", got)
	}
}

func TestMeanVectorsSingleCopy(t *testing.T) {
	src := []float32{1, 2}
	got := MeanVectors([][]float32{src})
	got[0] = 99
	if src[0] != 1 {
		t.Error("mean of one vector must not alias the input")
	}
}

func TestRoundVector(t *testing.T) {
	v := []float32{0.1234567, -0.9876543}
	RoundVector(v, 6)
	if math.Abs(float64(v[0])-0.123457) > 1e-7 {
		t.Errorf("got %v", v[0])
	}
	if math.Abs(float64(v[1])+0.987654) > 1e-7 {
		t.Errorf("got %v", v[1])
	}
}

func TestRoundVectorNegativeDigits(t *testing.T) {
	v := []float32{0.123}
	RoundVector(v, -1)
	if v[0] != 0.123 {
		t.Errorf("negative digits should leave vector unchanged, got %v", v[0])
	}
}
