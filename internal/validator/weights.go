package validator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/kami"
	chainutils "github.com/tensorplex-labs/reprompt/internal/utils/chain_utils"
)

// canSetWeights honours the subnet's weights rate limit for our own uid.
func (v *Validator) canSetWeights() bool {
	mg := v.Metagraph()
	uid, ok := chainutils.UIDForHotkey(&mg, v.hotkey)
	if !ok || uid >= len(mg.LastUpdate) {
		return true
	}
	elapsed := v.Block() - mg.LastUpdate[uid]
	if elapsed < mg.WeightsRateLimit {
		log.Info().Int("blocks_since_update", elapsed).Int("rate_limit", mg.WeightsRateLimit).
			Msg("Weights rate limit not reached, skipping weight setting")
		return false
	}
	return true
}

// SetWeights publishes the current score vector. Errors are returned for
// logging only; callers never abort on them.
func (v *Validator) SetWeights(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !v.canSetWeights() {
		return nil
	}

	snapshot := v.scores.Snapshot()
	dests, vals := chainutils.EmitWeights(snapshot.Scores)
	if len(dests) == 0 {
		log.Info().Msg("All scores are zero, skipping weight setting")
		return nil
	}

	resp, err := v.Kami.SetWeights(kami.SetWeightsParams{
		Netuid:     v.Netuid,
		Dests:      dests,
		Weights:    vals,
		VersionKey: v.cfg.WeightsVersion,
	})
	if err != nil {
		v.metrics.WeightsPublished(false)
		return fmt.Errorf("set weights: %w", err)
	}

	v.metrics.WeightsPublished(true)
	log.Info().Int("step", snapshot.Step).Int("uids", len(dests)).Str("tx_hash", resp.Data).Msg("Set weights on chain")
	return nil
}
