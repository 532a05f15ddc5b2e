package scoring

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tensorplex-labs/reprompt/internal/utils/logger"
)

// SimilarityScorer blends semantic and perceptual similarity between a
// reference image and a candidate into a reward. Its models are injected
// once and shared read-only by concurrent callers.
type SimilarityScorer struct {
	loader     ImageLoader
	embedder   Embedder
	perceptual PerceptualMetric
	Params     Params
}

func NewSimilarityScorer(loader ImageLoader, embedder Embedder, perceptual PerceptualMetric, opts ...SimilarityScorerOption) (*SimilarityScorer, error) {
	if loader == nil || embedder == nil || perceptual == nil {
		return nil, fmt.Errorf("loader, embedder and perceptual metric are required")
	}
	s := &SimilarityScorer{
		loader:     loader,
		embedder:   embedder,
		perceptual: perceptual,
		Params:     DefaultParams(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Params.PerceptualSize <= 0 {
		s.Params.PerceptualSize = DefaultPerceptualSize
	}
	return s, nil
}

// Similarity loads both images and returns every component score.
func (s *SimilarityScorer) Similarity(ctx context.Context, reference, candidate string) (Similarity, error) {
	var refImg, candImg image.Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		refImg, err = s.loader.Load(gctx, reference)
		return err
	})
	g.Go(func() (err error) {
		candImg, err = s.loader.Load(gctx, candidate)
		return err
	})
	if err := g.Wait(); err != nil {
		return Similarity{}, fmt.Errorf("%w: load images: %w", ErrScoring, err)
	}
	return s.Compare(ctx, refImg, candImg)
}

// Compare scores two already decoded images.
func (s *SimilarityScorer) Compare(ctx context.Context, reference, candidate image.Image) (Similarity, error) {
	embeddings, err := s.embedder.EmbedImages(ctx, reference, candidate)
	if err != nil {
		return Similarity{}, fmt.Errorf("%w: embed: %w", ErrScoring, err)
	}
	if len(embeddings) != 2 {
		return Similarity{}, fmt.Errorf("%w: expected 2 embeddings, got %d", ErrScoring, len(embeddings))
	}
	if len(embeddings[0]) != len(embeddings[1]) {
		return Similarity{}, fmt.Errorf("%w: embedding dims differ: %d vs %d", ErrScoring, len(embeddings[0]), len(embeddings[1]))
	}

	size := s.Params.PerceptualSize
	distance, err := s.perceptual.Distance(ctx, Resize(reference, size, size), Resize(candidate, size, size))
	if err != nil {
		return Similarity{}, fmt.Errorf("%w: perceptual distance: %w", ErrScoring, err)
	}

	var sim Similarity
	sim.Cosine = SemanticSimilarity(embeddings[0], embeddings[1])
	sim.Semantic = TransformToRange01([]float64{sim.Cosine})[0]
	sim.PerceptualDistance = distance
	sim.Perceptual = math.Max(0, 1-distance)
	sim.Combined = s.Params.SemanticWeight*sim.Semantic + s.Params.PerceptualWeight*sim.Perceptual
	sim.Reward = ApplyPowerCurve(sim.Combined, s.Params.Exponent, s.Params.MinReward, s.Params.MaxReward)

	logger.Sugar().Debugw("similarity computed",
		"semantic", sim.Semantic,
		"perceptual", sim.Perceptual,
		"combined", sim.Combined,
		"reward", sim.Reward,
	)
	return sim, nil
}

// Reward never fails: any error or panic while scoring yields 0.
func (s *SimilarityScorer) Reward(ctx context.Context, reference, candidate string) (reward float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("candidate", candidate).Msg("similarity scoring panicked")
			reward = 0
		}
	}()

	sim, err := s.Similarity(ctx, reference, candidate)
	if err != nil {
		log.Error().Err(err).Str("candidate", candidate).Msg("similarity scoring failed")
		return 0
	}
	return sim.Reward
}
