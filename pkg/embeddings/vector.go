// Package embeddings provides utilities for embedding vectors (cosine
// similarity, L2 normalization).
package embeddings

import (
	"math"
)

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// It returns 0.0 when either vector is nil, empty, of mismatched length, or of
// zero magnitude, so callers can treat missing embeddings as "no similarity"
// without a separate guard.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64

	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// NormalizeL2 takes a raw embedding vector and normalizes it to a length of 1.
// It modifies the slice in-place to save allocations during batch enrichment.
func NormalizeL2(vector []float32) {
	var sumSquares float64

	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	// Avoid division by zero (a valid embedding is never all zeros).
	if sumSquares == 0 {
		return
	}

	magnitude := math.Sqrt(sumSquares)

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}

// Valid reports whether v is usable as an embedding: non-nil and non-empty.
func Valid(v []float32) bool {
	return len(v) > 0
}
