package scoring

type SimilarityScorerOption func(*SimilarityScorer)

func WithSemanticWeight(w float64) SimilarityScorerOption {
	return func(s *SimilarityScorer) {
		s.Params.SemanticWeight = w
	}
}

func WithPerceptualWeight(w float64) SimilarityScorerOption {
	return func(s *SimilarityScorer) {
		s.Params.PerceptualWeight = w
	}
}

func WithExponent(exponent float64) SimilarityScorerOption {
	return func(s *SimilarityScorer) {
		s.Params.Exponent = exponent
	}
}

func WithRewardBounds(lo, hi float64) SimilarityScorerOption {
	return func(s *SimilarityScorer) {
		s.Params.MinReward = lo
		s.Params.MaxReward = hi
	}
}

func WithPerceptualSize(size int) SimilarityScorerOption {
	return func(s *SimilarityScorer) {
		s.Params.PerceptualSize = size
	}
}

func WithParams(params Params) SimilarityScorerOption {
	return func(s *SimilarityScorer) {
		s.Params = params
	}
}
