package chainutils

import (
	"math"
)

// U16MAX is the weight the highest scoring uid receives on chain.
const U16MAX = 65535

// EmitWeights turns a uid-indexed score vector into the sparse u16 form the
// chain accepts. Negative and non-finite scores count as zero, the maximum
// maps to U16MAX and uids whose weight rounds to zero are left out. An
// all-zero vector yields empty slices.
func EmitWeights(scores []float64) (uids []int, weights []int) {
	uids, weights = []int{}, []int{}

	maxScore := 0.0
	for _, s := range scores {
		if usable(s) && s > maxScore {
			maxScore = s
		}
	}
	if maxScore == 0 {
		return uids, weights
	}

	for uid, s := range scores {
		if !usable(s) {
			continue
		}
		if w := int(math.Round(s / maxScore * U16MAX)); w > 0 {
			uids = append(uids, uid)
			weights = append(weights, w)
		}
	}
	return uids, weights
}

func usable(s float64) bool {
	return s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s)
}
