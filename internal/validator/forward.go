package validator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/kami"
	"github.com/tensorplex-labs/reprompt/internal/metrics"
	"github.com/tensorplex-labs/reprompt/internal/synapse"
	chainutils "github.com/tensorplex-labs/reprompt/internal/utils/chain_utils"
)

// RunRound runs one round unless another is still in flight.
func (v *Validator) RunRound(ctx context.Context) {
	if !v.roundRunning.CompareAndSwap(false, true) {
		log.Info().Msg("Previous round still running, skipping")
		v.metrics.RoundFinished(metrics.ResultSkipped, 0)
		return
	}
	defer v.roundRunning.Store(false)

	start := time.Now()
	record, err := v.Forward(ctx)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("Validation round failed")
		v.metrics.RoundFinished(metrics.ResultFailure, time.Since(start))
		return
	case record == nil:
		v.metrics.RoundFinished(metrics.ResultSkipped, 0)
		return
	}
	v.metrics.RoundFinished(metrics.ResultSuccess, time.Since(start))

	if err := v.SetWeights(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to set weights")
	}
}

func axonsFor(mg *kami.SubnetMetagraph, uids []int) []synapse.Axon {
	axons := make([]synapse.Axon, len(uids))
	for i, uid := range uids {
		info := mg.Axons[uid]
		axons[i] = synapse.Axon{UID: uid, Hotkey: mg.Hotkeys[uid], IP: info.IP, Port: info.Port}
	}
	return axons
}

// Forward runs the challenge: synthesize a reference image, ask every miner
// for a prompt, score each prompt and store the rewards. It returns nil and
// no error when there is nobody to query.
func (v *Validator) Forward(ctx context.Context) (*RoundRecord, error) {
	roundID := uuid.NewString()
	start := time.Now()
	logger := log.With().Str("round_id", roundID).Logger()

	mg := v.Metagraph()
	v.scores.Resync(mg.Hotkeys)

	uids := chainutils.MinerUIDs(&mg, v.hotkey, v.cfg.Environment)
	if len(uids) == 0 {
		logger.Info().Msg("No miners to query, skipping round")
		return nil, nil
	}

	logger.Info().Int("miners", len(uids)).Msg("Starting validation round")
	referenceURL, err := v.synth.GenerateImage(ctx, v.cfg.ChallengePrompt)
	if err != nil {
		return nil, fmt.Errorf("generate reference image: %w", err)
	}
	logger.Debug().Str("reference_url", referenceURL).Msg("Reference image generated")

	responses := v.querier.QueryReversePrompt(ctx, axonsFor(&mg, uids), synapse.ReversePrompt{PathToImage: referenceURL})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("round cancelled after query: %w", err)
	}

	outputs := make([]*string, len(uids))
	for i := range uids {
		if i >= len(responses) || responses[i] == nil {
			continue
		}
		if out := strings.TrimSpace(responses[i].Output); out != "" {
			outputs[i] = &out
		}
	}

	rewards, replaced := Sanitize(v.aggregator.Compute(ctx, referenceURL, uids, outputs), uids)
	// a cancelled Compute reports 0 for everyone; never store that
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("round cancelled during scoring: %w", err)
	}
	v.metrics.NonFiniteReplaced(replaced)
	for _, r := range rewards {
		v.metrics.RewardObserved(r)
	}

	if err := v.scores.Update(uids, rewards); err != nil {
		logger.Error().Err(err).Msg("Failed to persist scores")
	}

	record := &RoundRecord{
		RoundID:      roundID,
		Step:         v.scores.Snapshot().Step,
		Block:        v.Block(),
		ReferenceURL: referenceURL,
		StartedAt:    start,
		Duration:     time.Since(start).Seconds(),
		Replaced:     replaced,
		Miners:       make([]MinerReward, len(uids)),
	}
	for i, uid := range uids {
		mr := MinerReward{
			UID:     uid,
			Hotkey:  mg.Hotkeys[uid],
			Coldkey: chainutils.GetColdkeyForHotkey(&mg, mg.Hotkeys[uid]),
			Reward:  rewards[i],
		}
		if outputs[i] != nil {
			mr.Prompt = *outputs[i]
		}
		record.Miners[i] = mr
	}

	v.mirrorRound(ctx, record)
	logger.Info().Int("step", record.Step).Floats64("rewards", rewards).Msg("Validation round complete")
	return record, nil
}
