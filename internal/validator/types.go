// Package validator runs validation rounds: it challenges miners with a
// reference image, scores their prompts and publishes weights.
package validator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/core"
	"github.com/tensorplex-labs/reprompt/internal/imagegen"
	"github.com/tensorplex-labs/reprompt/internal/metrics"
	"github.com/tensorplex-labs/reprompt/internal/synapse"
	"github.com/tensorplex-labs/reprompt/internal/utils/redis"
)

const (
	redisRoundCounterKey = "validator:round"
	redisRoundsKey       = "validator:rounds"
	redisLastRoundKey    = "validator:last_round"
	redisRoundsMaxLen    = 100
)

// RewardScorer turns a reference and candidate image into a reward in
// [0, 1]. It never fails; failures score 0.
type RewardScorer interface {
	Reward(ctx context.Context, referenceURL, candidateURL string) float64
}

// PeerQuerier sends a challenge to every axon and returns responses aligned
// with axons, nil where a peer failed.
type PeerQuerier interface {
	QueryReversePrompt(ctx context.Context, axons []synapse.Axon, req synapse.ReversePrompt) []*synapse.ReversePrompt
}

// ScoresData is the persisted score vector, indexed by uid.
type ScoresData struct {
	Step    int       `json:"step"`
	Scores  []float64 `json:"scores"`
	Hotkeys []string  `json:"hotkeys"`
}

// ScoreStore guards ScoresData and writes it to disk after every change.
type ScoreStore struct {
	mu   sync.RWMutex
	path string
	data ScoresData
}

type RewardAggregator struct {
	synthesizer imagegen.SynthesizerInterface
	scorer      RewardScorer
	workers     int
}

// MinerReward is one miner's outcome in a RoundRecord.
type MinerReward struct {
	UID     int     `json:"uid"`
	Hotkey  string  `json:"hotkey"`
	Coldkey string  `json:"coldkey,omitempty"`
	Prompt  string  `json:"prompt,omitempty"`
	Reward  float64 `json:"reward"`
}

// RoundRecord summarizes a finished round for the Redis mirror.
type RoundRecord struct {
	RoundID      string        `json:"round_id"`
	Step         int           `json:"step"`
	Block        int           `json:"block"`
	ReferenceURL string        `json:"reference_url"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     float64       `json:"duration_seconds"`
	Replaced     int           `json:"non_finite_replaced"`
	Miners       []MinerReward `json:"miners"`
}

type Validator struct {
	*core.Node

	cfg        *config.AppConfig
	intervals  *config.IntervalConfig
	hotkey     string
	querier    PeerQuerier
	synth      imagegen.SynthesizerInterface
	aggregator *RewardAggregator
	scores     *ScoreStore
	redis      redis.RedisInterface
	metrics    *metrics.Collector

	wg           sync.WaitGroup
	roundRunning atomic.Bool
}
