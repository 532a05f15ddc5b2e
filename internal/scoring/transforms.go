package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

func TransformToRange01(arr []float64) []float64 {
	result := make([]float64, len(arr))
	copy(result, arr)

	floats.AddConst(1, result)
	floats.Scale(0.5, result)

	return result
}

// ApplyPowerCurve raises x to exponent and clamps it into [lo, hi]. NaN is
// returned unchanged so callers can detect and count it.
func ApplyPowerCurve(x, exponent, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	return clamp(math.Pow(x, exponent), lo, hi)
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}
