package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/imageio"
	"github.com/tensorplex-labs/reprompt/internal/kami"
	"github.com/tensorplex-labs/reprompt/internal/metrics"
	"github.com/tensorplex-labs/reprompt/internal/miner"
	"github.com/tensorplex-labs/reprompt/internal/promptgen"
	"github.com/tensorplex-labs/reprompt/internal/utils/logger"
	"github.com/tensorplex-labs/reprompt/pkg/signature"
)

func main() {
	logger.Init()
	log.Info().Msg("Starting miner...")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env not loaded; continuing with existing environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}

	k, err := kami.NewKami(&cfg.KamiEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing Kami")
	}

	generator, err := promptgen.NewGemini(&cfg.GeminiEnvConfig, imageio.NewLoader(cfg.ImageFetchTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init prompt generator")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	m, err := miner.NewMiner(cfg, k, generator, signature.NewVerifier(), collector)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init miner")
	}

	log.Info().Msg("Miner is running. Press Ctrl+C to shutdown...")
	if err := m.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("miner exited with error")
	}
	log.Info().Msg("Miner shutdown complete")
}
