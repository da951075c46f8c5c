package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "authguard:ratelimit:"

// RedisStore shares the sliding window between processes. Each identifier is
// a sorted set of random members scored by attempt time in microseconds.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store on top of an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Window(ctx context.Context, identifier string, cutoff time.Time) ([]time.Time, error) {
	key := redisKeyPrefix + identifier

	var rangeCmd *redis.ZSliceCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", scoreBound(cutoff))
		rangeCmd = p.ZRangeWithScores(ctx, key, 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis window %s: %w", identifier, err)
	}

	members := rangeCmd.Val()
	out := make([]time.Time, 0, len(members))
	for _, z := range members {
		out = append(out, time.UnixMicro(int64(z.Score)))
	}
	return out, nil
}

func (s *RedisStore) Append(ctx context.Context, identifier string, at, cutoff time.Time) error {
	key := redisKeyPrefix + identifier
	ttl := at.Sub(cutoff)

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, key, redis.Z{
			Score:  float64(at.UnixMicro()),
			Member: uuid.NewString(),
		})
		p.ZRemRangeByScore(ctx, key, "-inf", scoreBound(cutoff))
		if ttl > 0 {
			p.PExpire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append %s: %w", identifier, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+identifier).Err(); err != nil {
		return fmt.Errorf("redis clear %s: %w", identifier, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// scoreBound renders cutoff as an inclusive ZREMRANGEBYSCORE bound
func scoreBound(cutoff time.Time) string {
	return strconv.FormatInt(cutoff.UnixMicro(), 10)
}
