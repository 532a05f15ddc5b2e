package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/imageio"
	"github.com/tensorplex-labs/reprompt/internal/inference"
	"github.com/tensorplex-labs/reprompt/internal/utils/logger"
)

// Scores a candidate image against a reference offline:
//
//	go run ./cmd/scoring -ref a.png -cand b.png
func main() {
	reference := flag.String("ref", "", "reference image path or url")
	candidate := flag.String("cand", "", "candidate image path or url")
	logger.Init()

	if *reference == "" || *candidate == "" {
		log.Error().Msg("both -ref and -cand are required")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}

	scorer, err := inference.NewSimilarityScorer(&cfg.ScoringEnvConfig, imageio.NewLoader(cfg.ImageFetchTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init similarity scorer")
	}

	ctx := context.Background()
	sim, err := scorer.Similarity(ctx, *reference, *candidate)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to score images")
	}

	log.Info().
		Str("backend", cfg.ScoringBackend).
		Float64("cosine", sim.Cosine).
		Float64("semantic", sim.Semantic).
		Float64("perceptual_distance", sim.PerceptualDistance).
		Float64("perceptual", sim.Perceptual).
		Float64("combined", sim.Combined).
		Float64("reward", sim.Reward).
		Msg("similarity")
}
