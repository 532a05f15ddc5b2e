package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/imagegen"
	"github.com/tensorplex-labs/reprompt/internal/imageio"
	"github.com/tensorplex-labs/reprompt/internal/inference"
	"github.com/tensorplex-labs/reprompt/internal/kami"
	"github.com/tensorplex-labs/reprompt/internal/metrics"
	"github.com/tensorplex-labs/reprompt/internal/synapse"
	"github.com/tensorplex-labs/reprompt/internal/utils/logger"
	"github.com/tensorplex-labs/reprompt/internal/utils/redis"
	"github.com/tensorplex-labs/reprompt/internal/validator"
	"github.com/tensorplex-labs/reprompt/pkg/signature"
)

func main() {
	logger.Init()
	log.Info().Msg("Starting validator...")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env not loaded; continuing with existing environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	k, err := kami.NewKami(&cfg.KamiEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init kami client")
	}

	keypair, err := signature.LoadKeypairFromHotkey(ctx, cfg.WalletColdkey, cfg.WalletHotkey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load wallet hotkey")
	}
	signer, err := signature.NewProvider(keypair)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init signature provider")
	}

	client, err := synapse.NewClient(signer, &cfg.ClientEnvConfig, cfg.MaxConcurrentQueries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init synapse client")
	}
	defer client.Close()

	synth, err := imagegen.NewOpenAI(&cfg.OpenAIEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init image synthesizer")
	}

	scorer, err := inference.NewSimilarityScorer(&cfg.ScoringEnvConfig, imageio.NewLoader(cfg.ImageFetchTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init similarity scorer")
	}

	// a nil *Redis must not leak into the interface
	var r redis.RedisInterface
	if cfg.RedisHost != "" {
		rc, rerr := redis.NewRedis(&cfg.RedisEnvConfig)
		if rerr != nil {
			log.Error().Err(rerr).Msg("failed to init redis client, continuing without redis")
		} else {
			r = rc
			defer rc.Close()
		}
	}

	collector := metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		go func() {
			if serr := collector.Serve(ctx, cfg.MetricsAddr); serr != nil {
				log.Error().Err(serr).Msg("metrics listener stopped")
			}
		}()
	}

	v, err := validator.NewValidator(cfg, k, validator.NewSynapseQuerier(client), synth, scorer, r, collector)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init validator")
	}

	if err := v.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start validator")
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping validator")
	v.Wait()
	log.Info().Msg("validator stopped")
}
