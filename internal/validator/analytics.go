package validator

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/utils/redis"
)

// mirrorRound writes the round counter and record to Redis when it is
// configured. Failures are logged and otherwise ignored.
func (v *Validator) mirrorRound(ctx context.Context, record *RoundRecord) {
	if v.redis == nil || record == nil {
		return
	}

	count, err := v.redis.Incr(ctx, redisRoundCounterKey)
	if err != nil {
		log.Error().Err(err).Msg("failed to increment round counter")
		return
	}

	raw, err := sonic.Marshal(record)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal round record")
		return
	}
	if err := v.redis.PushCapped(ctx, redisRoundsKey, string(raw), redisRoundsMaxLen); err != nil {
		log.Error().Err(err).Msg("failed to push round record")
		return
	}
	if err := v.redis.Set(ctx, redisLastRoundKey, string(raw), v.cfg.RedisTTL); err != nil {
		log.Error().Err(err).Msg("failed to store last round")
		return
	}
	log.Debug().Int64("round", count).Str("round_id", record.RoundID).Msg("Mirrored round to redis")
}

// RecentRounds reads up to n mirrored round records, newest first.
// Malformed entries are skipped.
func RecentRounds(ctx context.Context, r redis.RedisInterface, n int64) ([]RoundRecord, error) {
	if r == nil || n <= 0 {
		return nil, nil
	}
	vals, err := r.LRange(ctx, redisRoundsKey, 0, n-1)
	if err != nil {
		return nil, err
	}
	records := make([]RoundRecord, 0, len(vals))
	for _, raw := range vals {
		var rec RoundRecord
		if err := sonic.UnmarshalString(raw, &rec); err != nil {
			log.Warn().Err(err).Msg("skipping malformed round record")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
