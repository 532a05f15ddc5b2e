package scoring

const (
	DefaultSemanticWeight   = 0.7
	DefaultPerceptualWeight = 0.3
	DefaultRewardExponent   = 3.0
	DefaultMinReward        = 1e-4
	DefaultMaxReward        = 1.0

	// DefaultPerceptualSize is the square side both images are resized to
	// before the perceptual metric runs.
	DefaultPerceptualSize = 224
)

func DefaultParams() Params {
	return Params{
		SemanticWeight:   DefaultSemanticWeight,
		PerceptualWeight: DefaultPerceptualWeight,
		Exponent:         DefaultRewardExponent,
		MinReward:        DefaultMinReward,
		MaxReward:        DefaultMaxReward,
		PerceptualSize:   DefaultPerceptualSize,
	}
}
