package scoring

import (
	"gonum.org/v1/gonum/floats"
)

// L2Normalize returns a unit-length copy of v. A zero vector stays zero.
func L2Normalize(v []float64) []float64 {
	result := make([]float64, len(v))
	copy(result, v)

	norm := floats.Norm(result, 2)
	if norm > 0 {
		floats.Scale(1.0/norm, result)
	}
	return result
}

// SemanticSimilarity is the cosine of the L2-normalized embeddings clipped
// to [-1, 1] against rounding. Equal non-zero embeddings score exactly 1.
func SemanticSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	if floats.Equal(a, b) && floats.Norm(a, 2) > 0 {
		return 1.0
	}
	return clamp(floats.Dot(L2Normalize(a), L2Normalize(b)), -1, 1)
}
