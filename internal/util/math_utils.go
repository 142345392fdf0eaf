package util

import (
	"fmt"
	"math"
)

// CosineSimilarity calculates the cosine similarity between two float32 vectors.
// A zero-magnitude vector has similarity 0 with everything.
func CosineSimilarity(vec1 []float32, vec2 []float32) (float64, error) {
	if len(vec1) == 0 || len(vec2) == 0 {
		return 0, fmt.Errorf("input vectors cannot be empty")
	}
	if len(vec1) != len(vec2) {
		return 0, fmt.Errorf("vector dimensions do not match: %d vs %d", len(vec1), len(vec2))
	}

	var dot, mag1, mag2 float64
	for i := range vec1 {
		a, b := float64(vec1[i]), float64(vec2[i])
		dot += a * b
		mag1 += a * a
		mag2 += b * b
	}

	if mag1 == 0 || mag2 == 0 {
		return 0, nil
	}
	return ClampSimilarity(dot / (math.Sqrt(mag1) * math.Sqrt(mag2))), nil
}

// SimilarityFromDistance converts a pgvector cosine distance (<=>) into a
// similarity in [-1, 1].
func SimilarityFromDistance(distance float64) float64 {
	return ClampSimilarity(1 - distance)
}

// ClampSimilarity absorbs floating point drift just outside [-1, 1].
func ClampSimilarity(s float64) float64 {
	switch {
	case math.IsNaN(s):
		return 0
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}
