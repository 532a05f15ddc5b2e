package validator

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/imagegen"
)

func NewRewardAggregator(synthesizer imagegen.SynthesizerInterface, scorer RewardScorer, workers int) (*RewardAggregator, error) {
	if synthesizer == nil || scorer == nil {
		return nil, fmt.Errorf("synthesizer and scorer are required")
	}
	if workers < 1 {
		workers = 1
	}
	return &RewardAggregator{synthesizer: synthesizer, scorer: scorer, workers: workers}, nil
}

// Compute scores every queried uid. outputs is aligned with uids; a nil or
// blank output, a synthesis failure or a panic all yield 0. The result has
// an entry for each uid.
func (a *RewardAggregator) Compute(ctx context.Context, referenceURL string, uids []int, outputs []*string) map[int]float64 {
	rewards := make(map[int]float64, len(uids))
	for _, uid := range uids {
		rewards[uid] = 0
	}

	var mu sync.Mutex
	wp := workerpool.New(a.workers)
	for i, uid := range uids {
		var prompt string
		if i < len(outputs) && outputs[i] != nil {
			prompt = strings.TrimSpace(*outputs[i])
		}
		if prompt == "" {
			log.Info().Int("uid", uid).Msg("No response from miner, reward 0")
			continue
		}

		wp.Submit(func() {
			r := a.scoreOne(ctx, referenceURL, uid, prompt)
			mu.Lock()
			rewards[uid] = r
			mu.Unlock()
		})
	}
	wp.StopWait()
	return rewards
}

func (a *RewardAggregator) scoreOne(ctx context.Context, referenceURL string, uid int, prompt string) (reward float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("uid", uid).Interface("panic", r).Msg("Reward computation panicked, reward 0")
			reward = 0
		}
	}()

	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Int("uid", uid).Msg("Round cancelled before scoring, reward 0")
		return 0
	}

	candidateURL, err := a.synthesizer.GenerateImage(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Int("uid", uid).Msg("Failed to synthesize candidate image, reward 0")
		return 0
	}

	reward = a.scorer.Reward(ctx, referenceURL, candidateURL)
	log.Info().Int("uid", uid).Float64("reward", reward).Msg("Scored miner")
	return reward
}

// Sanitize lays rewards out in uids order, replacing NaN and infinite values
// (and uids missing from rewards) with 0. It returns how many non-finite
// values were replaced.
func Sanitize(rewards map[int]float64, uids []int) ([]float64, int) {
	dense := make([]float64, len(uids))
	replaced := 0
	for i, uid := range uids {
		r := rewards[uid]
		if math.IsNaN(r) || math.IsInf(r, 0) {
			replaced++
			continue
		}
		dense[i] = r
	}
	if replaced > 0 {
		log.Warn().Int("count", replaced).Msg("Replaced non-finite rewards with 0")
	}
	return dense, replaced
}
