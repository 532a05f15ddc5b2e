// Package config defines environment configuration structs and loaders.
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type AppConfig struct {
	ChainEnvConfig
	WalletEnvConfig
	KamiEnvConfig
	ServerEnvConfig
	ClientEnvConfig
	RedisEnvConfig
	ImageEnvConfig
	GeminiEnvConfig
	OpenAIEnvConfig
	ScoringEnvConfig
	BlacklistEnvConfig
	ValidatorEnvConfig
	MetricsEnvConfig
}

func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ChainEnvConfig holds chain-specific environment values.
type ChainEnvConfig struct {
	Netuid int `env:"NETUID" envDefault:"98"`
}

// WalletEnvConfig names the wallet keys. The wallet directory
// (BITTENSOR_DIR) is resolved by pkg/signature when the hotkey is loaded.
type WalletEnvConfig struct {
	WalletHotkey  string `env:"WALLET_HOTKEY"`
	WalletColdkey string `env:"WALLET_COLDKEY"`
}

// KamiEnvConfig contains Kami service target and retry settings.
type KamiEnvConfig struct {
	SubtensorNetwork string        `env:"SUBTENSOR_NETWORK" envDefault:"test"`
	KamiHost         string        `env:"KAMI_HOST" envDefault:"127.0.0.1"`
	KamiPort         string        `env:"KAMI_PORT" envDefault:"3000"`
	KamiTimeout      time.Duration `env:"KAMI_TIMEOUT" envDefault:"30s"`
	KamiRetryMax     int           `env:"KAMI_RETRY_MAX" envDefault:"5"`
}

// ServerEnvConfig configures the miner axon server.
type ServerEnvConfig struct {
	Address       string        `env:"AXON_IP" envDefault:"127.0.0.1"`
	Port          int           `env:"AXON_PORT" envDefault:"8080"`
	ExternalIP    string        `env:"AXON_EXTERNAL_IP"`
	BodySizeLimit int           `env:"SERVER_BODY_LIMIT" envDefault:"1048576"`
	MaxConcurrent int           `env:"SYNAPSE_MAX_CONCURRENT" envDefault:"4"`
	MaxClockSkew  time.Duration `env:"SYNAPSE_MAX_CLOCK_SKEW" envDefault:"60s"`
}

// ClientEnvConfig configures the synapse client.
type ClientEnvConfig struct {
	ClientTimeout time.Duration `env:"CLIENT_TIMEOUT" envDefault:"10s"`
}

// RedisEnvConfig configures Redis connection. An empty host disables Redis.
type RedisEnvConfig struct {
	RedisHost     string        `env:"REDIS_HOST"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisUsername string        `env:"REDIS_USERNAME"`
	RedisTTL      time.Duration `env:"REDIS_TTL" envDefault:"24h"`
}

// ImageEnvConfig configures image fetching.
type ImageEnvConfig struct {
	ImageFetchTimeout time.Duration `env:"IMAGE_FETCH_TIMEOUT" envDefault:"10s"`
}

// GeminiEnvConfig configures the miner's prompt generator.
type GeminiEnvConfig struct {
	GeminiAPIKey   string        `env:"GEMINI_API_KEY"`
	GeminiAPIURL   string        `env:"GEMINI_API_URL" envDefault:"https://generativelanguage.googleapis.com"`
	GeminiModel    string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiTimeout  time.Duration `env:"GEMINI_TIMEOUT" envDefault:"2m"`
	PromptMaxWords int           `env:"PROMPT_MAX_WORDS" envDefault:"100"`
}

// OpenAIEnvConfig configures the validator's image synthesizer.
type OpenAIEnvConfig struct {
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIAPIURL     string        `env:"OPENAI_API_URL" envDefault:"https://api.openai.com"`
	OpenAIImageModel string        `env:"OPENAI_IMAGE_MODEL" envDefault:"dall-e-2"`
	OpenAIImageSize  string        `env:"OPENAI_IMAGE_SIZE" envDefault:"1024x1024"`
	OpenAITimeout    time.Duration `env:"OPENAI_TIMEOUT" envDefault:"2m"`
}

// ScoringEnvConfig selects and configures the similarity back ends.
type ScoringEnvConfig struct {
	ScoringBackend   string        `env:"SCORING_BACKEND" envDefault:"remote"`
	InferenceAPIURL  string        `env:"INFERENCE_API_URL" envDefault:"http://localhost:5005"`
	InferenceTimeout time.Duration `env:"INFERENCE_TIMEOUT" envDefault:"60s"`
}

// BlacklistEnvConfig controls which callers the miner serves.
type BlacklistEnvConfig struct {
	AllowNonRegistered   bool `env:"BLACKLIST_ALLOW_NON_REGISTERED" envDefault:"false"`
	ForceValidatorPermit bool `env:"BLACKLIST_FORCE_VALIDATOR_PERMIT" envDefault:"false"`
}

// ValidatorEnvConfig configures validator runtime.
type ValidatorEnvConfig struct {
	Environment          string `env:"ENVIRONMENT" envDefault:"dev"`
	ChallengePrompt      string `env:"VALIDATOR_CHALLENGE_PROMPT" envDefault:"Create a picture of a nano banana dish in a fancy restaurant with a Gemini theme"`
	ScoresFile           string `env:"VALIDATOR_SCORES_FILE" envDefault:"scores.json"`
	RewardWorkers        int    `env:"VALIDATOR_REWARD_WORKERS" envDefault:"1"`
	MaxConcurrentQueries int    `env:"VALIDATOR_MAX_CONCURRENT_QUERIES" envDefault:"64"`
	WeightsVersion       int    `env:"VALIDATOR_WEIGHTS_VERSION" envDefault:"1"`
}

// MetricsEnvConfig configures the prometheus listener. Empty disables it.
type MetricsEnvConfig struct {
	MetricsAddr string `env:"METRICS_ADDR"`
}

type IntervalConfig struct {
	RoundInterval       time.Duration
	BlockInterval       time.Duration
	MetagraphSyncBlocks int
}

var (
	DevIntervalConfig = &IntervalConfig{
		RoundInterval:       15 * time.Second,
		BlockInterval:       2 * time.Second,
		MetagraphSyncBlocks: 2,
	}
	TestIntervalConfig = &IntervalConfig{
		RoundInterval:       5 * time.Minute,
		BlockInterval:       12 * time.Second,
		MetagraphSyncBlocks: 5,
	}

	ProdIntervalConfig = &IntervalConfig{
		RoundInterval:       5 * time.Minute,
		BlockInterval:       12 * time.Second,
		MetagraphSyncBlocks: 5,
	}
)

func NewIntervalConfig(environment string) *IntervalConfig {
	switch strings.ToLower(environment) {
	case "dev":
		return DevIntervalConfig
	case "test":
		return TestIntervalConfig
	case "prod":
		return ProdIntervalConfig
	}

	return DevIntervalConfig
}
