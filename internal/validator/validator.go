package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/core"
	"github.com/tensorplex-labs/reprompt/internal/imagegen"
	"github.com/tensorplex-labs/reprompt/internal/kami"
	"github.com/tensorplex-labs/reprompt/internal/metrics"
	"github.com/tensorplex-labs/reprompt/internal/synapse"
	"github.com/tensorplex-labs/reprompt/internal/utils/redis"
)

type synapseQuerier struct {
	client *synapse.Client
}

// NewSynapseQuerier queries peers through a signing synapse client.
func NewSynapseQuerier(client *synapse.Client) PeerQuerier {
	return &synapseQuerier{client: client}
}

func (q *synapseQuerier) QueryReversePrompt(ctx context.Context, axons []synapse.Axon, req synapse.ReversePrompt) []*synapse.ReversePrompt {
	return synapse.Query(ctx, q.client, axons, req, q.client.Timeout())
}

// NewValidator wires a validator. r may be nil to disable the Redis mirror.
func NewValidator(
	cfg *config.AppConfig,
	k kami.KamiInterface,
	querier PeerQuerier,
	synth imagegen.SynthesizerInterface,
	scorer RewardScorer,
	r redis.RedisInterface,
	collector *metrics.Collector,
) (*Validator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if querier == nil {
		return nil, fmt.Errorf("peer querier is nil")
	}

	aggregator, err := NewRewardAggregator(synth, scorer, cfg.RewardWorkers)
	if err != nil {
		return nil, err
	}

	scores, err := LoadScoreStore(cfg.ScoresFile)
	if err != nil {
		return nil, err
	}

	intervals := config.NewIntervalConfig(cfg.Environment)
	v := &Validator{
		Node:       core.NewNode(k, cfg.Netuid, intervals.BlockInterval),
		cfg:        cfg,
		intervals:  intervals,
		querier:    querier,
		synth:      synth,
		aggregator: aggregator,
		scores:     scores,
		redis:      r,
		metrics:    collector,
	}
	v.RegisterMetagraphSync(intervals.MetagraphSyncBlocks)
	return v, nil
}

func (v *Validator) Scores() ScoresData {
	return v.scores.Snapshot()
}

func (v *Validator) Hotkey() string {
	return v.hotkey
}

// runTicker runs fn every d until ctx is cancelled. fn runs in its own
// goroutine so the loop can exit promptly.
func (v *Validator) runTicker(ctx context.Context, d time.Duration, fn func(context.Context)) {
	defer v.wg.Done()
	t := time.NewTicker(d)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			v.wg.Add(1)
			go func() {
				defer v.wg.Done()
				fn(ctx)
			}()
		}
	}
}

// Start loads the validator hotkey, starts chain sync and the round ticker.
func (v *Validator) Start(ctx context.Context) error {
	hotkey, err := kami.GetHotkey(v.Kami)
	if err != nil {
		return fmt.Errorf("failed to get validator hotkey: %w", err)
	}
	v.hotkey = hotkey
	log.Info().Msgf("Validator hotkey %s loaded!", hotkey)

	if err := v.Node.Start(ctx); err != nil {
		return fmt.Errorf("start node: %w", err)
	}

	v.wg.Add(1)
	go v.runTicker(ctx, v.intervals.RoundInterval, v.RunRound)
	log.Info().Dur("round_interval", v.intervals.RoundInterval).Msg("Validator started")
	return nil
}

// Wait blocks until every background routine started by Start returns.
func (v *Validator) Wait() {
	v.wg.Wait()
}
