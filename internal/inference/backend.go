package inference

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/scoring"
)

const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// NewSimilarityScorer builds the scorer for the configured back end:
// "remote" uses the model sidecar, "local" the in-process metrics.
func NewSimilarityScorer(cfg *config.ScoringEnvConfig, loader scoring.ImageLoader, opts ...scoring.SimilarityScorerOption) (*scoring.SimilarityScorer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	switch strings.ToLower(cfg.ScoringBackend) {
	case BackendRemote, "":
		client, err := NewClient(cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("url", cfg.InferenceAPIURL).Msg("Using remote scoring backend")
		return scoring.NewSimilarityScorer(loader, client, client, opts...)
	case BackendLocal:
		log.Info().Msg("Using local scoring backend")
		return scoring.NewSimilarityScorer(loader, scoring.NewHistogramEmbedder(), scoring.NewPyramidPerceptual(), opts...)
	default:
		return nil, fmt.Errorf("unknown SCORING_BACKEND %q", cfg.ScoringBackend)
	}
}
