package embeddings

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	const tol = 1e-9

	t.Run("identical vectors give 1", func(t *testing.T) {
		v := []float32{0.5, -0.25, 1}
		if got := CosineSimilarity(v, v); math.Abs(got-1) > tol {
			t.Errorf("expected 1.0, got %f", got)
		}
	})

	t.Run("orthogonal vectors give 0", func(t *testing.T) {
		if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > tol {
			t.Errorf("expected 0.0, got %f", got)
		}
	})

	t.Run("opposite vectors give -1", func(t *testing.T) {
		if got := CosineSimilarity([]float32{1, 2}, []float32{-1, -2}); math.Abs(got+1) > tol {
			t.Errorf("expected -1.0, got %f", got)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		a := []float32{0.3, 0.7, 0.1}
		b := []float32{0.9, 0.2, 0.4}

		if ab, ba := CosineSimilarity(a, b), CosineSimilarity(b, a); math.Abs(ab-ba) > tol {
			t.Errorf("not symmetric: %f vs %f", ab, ba)
		}
	})

	t.Run("bounded to [-1, 1]", func(t *testing.T) {
		a := []float32{1e-3, 1e3, -5}
		b := []float32{1e3, 1e-3, 5}

		got := CosineSimilarity(a, b)
		if got < -1-tol || got > 1+tol {
			t.Errorf("out of bounds: %f", got)
		}
	})

	t.Run("nil, empty, mismatched, and zero vectors give 0", func(t *testing.T) {
		cases := [][2][]float32{
			{nil, []float32{1}},
			{[]float32{1}, nil},
			{{}, {}},
			{[]float32{1, 2}, []float32{1}},
			{[]float32{0, 0}, []float32{1, 1}},
		}
		for _, c := range cases {
			if got := CosineSimilarity(c[0], c[1]); got != 0 {
				t.Errorf("CosineSimilarity(%v, %v) = %f, want 0", c[0], c[1], got)
			}
		}
	})
}

func TestNormalizeL2(t *testing.T) {
	const tol = 1e-5

	t.Run("normalizes to unit length", func(t *testing.T) {
		vec := []float32{3, 4}
		NormalizeL2(vec)
		// 3-4-5 triangle => magnitude 5 => expected (0.6, 0.8)
		if math.Abs(float64(vec[0])-0.6) > tol || math.Abs(float64(vec[1])-0.8) > tol {
			t.Errorf("expected (0.6, 0.8), got (%f, %f)", vec[0], vec[1])
		}
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		v := []float32{0, 0, 0}
		NormalizeL2(v)

		if v[0] != 0 || v[1] != 0 || v[2] != 0 {
			t.Errorf("zero vector should remain unchanged: got %v", v)
		}
	})
}

func TestValid(t *testing.T) {
	if Valid(nil) || Valid([]float32{}) {
		t.Error("nil/empty should not be valid")
	}

	if !Valid([]float32{0.1}) {
		t.Error("non-empty vector should be valid")
	}
}
