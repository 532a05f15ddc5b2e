// Package redis provides a Redis client used to mirror validator round state
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/tensorplex-labs/reprompt/internal/config"
)

type Redis struct {
	client rueidis.Client
	cfg    *config.RedisEnvConfig
}

type RedisInterface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	PushCapped(ctx context.Context, key, value string, maxLen int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	Close()
}

func NewRedis(cfg *config.RedisEnvConfig) (*Redis, error) {
	if cfg == nil || cfg.RedisHost == "" {
		return nil, fmt.Errorf("redis host is not configured")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)},
		Username:    cfg.RedisUsername,
		Password:    cfg.RedisPassword,
		SelectDB:    cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}

	return &Redis{
		client: client,
		cfg:    cfg,
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	resp := r.client.Do(ctx, r.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return "", nil
		}
		return "", err
	}
	return resp.ToString()
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl > 0 {
		return r.client.Do(ctx, r.client.B().Set().Key(key).Value(value).Ex(ttl).Build()).Error()
	}
	return r.client.Do(ctx, r.client.B().Set().Key(key).Value(value).Build()).Error()
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Do(ctx, r.client.B().Incr().Key(key).Build()).AsInt64()
}

// PushCapped prepends value to the list at key and trims it to maxLen entries.
func (r *Redis) PushCapped(ctx context.Context, key, value string, maxLen int64) error {
	cmds := rueidis.Commands{
		r.client.B().Lpush().Key(key).Element(value).Build(),
		r.client.B().Ltrim().Key(key).Start(0).Stop(maxLen - 1).Build(),
	}
	for _, resp := range r.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil && !rueidis.IsRedisNil(err) {
			return err
		}
	}
	return nil
}

func (r *Redis) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	resp := r.client.Do(ctx, r.client.B().Lrange().Key(key).Start(start).Stop(stop).Build())
	vals, err := resp.AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return vals, nil
}

func (r *Redis) Close() {
	r.client.Close()
}
