package nlu

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	vec := []float32{3, 4}
	normalize(vec)
	if vec[0] != 0.6 || vec[1] != 0.8 {
		t.Errorf("normalize([3 4]) = %v, want [0.6 0.8]", vec)
	}

	zero := []float32{0, 0, 0}
	normalize(zero)
	for _, v := range zero {
		if v != 0 {
			t.Fatalf("normalize(zero) = %v, want unchanged", zero)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{0, 1, 0}, []float32{0, 1, 0}, 1},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"empty", nil, []float32{1}, 0},
		{"length mismatch uses shared prefix", []float32{1, 0}, []float32{1, 0, 0.5}, 1},
	}
	for _, tt := range tests {
		if got := cosineSimilarity(tt.a, tt.b); float32(math.Abs(float64(got-tt.want))) > 1e-6 {
			t.Errorf("%s: cosineSimilarity = %v, want %v", tt.name, got, tt.want)
		}
	}
}
