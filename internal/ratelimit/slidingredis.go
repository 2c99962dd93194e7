package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Allower records one event for key and reports whether it fits in the window.
type Allower interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// RedisWindow is a sliding window limiter backed by Redis sorted sets, so
// several API replicas share one budget per terminal.
type RedisWindow struct {
	Client *redis.Client
	Prefix string
}

func (l RedisWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	now := time.Now()
	until := now.Add(window)
	cutoff := float64(now.Add(-window).UnixNano())

	redisKey := l.Prefix + key
	member := key + ":" + uuid.NewString()

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, until, err
	}

	current := int(countCmd.Val())
	return current <= max, clampRemaining(max - current), until, nil
}

// StoreWindow adapts a ulule/limiter store. The API uses it with the
// in-memory store when Redis is not configured.
type StoreWindow struct {
	Store limiter.Store
}

// NewMemoryWindow returns a StoreWindow that keeps counters in process memory.
func NewMemoryWindow() StoreWindow {
	return StoreWindow{Store: memory.NewStore()}
}

func (l StoreWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if l.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	res, err := limiter.New(l.Store, limiter.Rate{Period: window, Limit: int64(max)}).Get(ctx, key)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !res.Reached, clampRemaining(int(res.Remaining)), time.Unix(res.Reset, 0), nil
}

func clampRemaining(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
