package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campgrid/auth-service/pkg/database"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiter throttles requests with a sliding-window log kept in a Redis
// sorted set per key.
type RateLimiter struct {
	redis *database.Redis
}

func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow records the request and reports whether it fits within limit per
// window. When the window is full, the returned error names the wait until
// the oldest entry ages out.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	redisKey := rateLimitKeyPrefix + key

	count, err := r.pruneAndCount(ctx, redisKey, now, window)
	if err != nil {
		return false, err
	}

	if count >= int64(limit) {
		oldest, err := r.redis.Client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			oldestTime := time.Unix(int64(oldest[0].Score), 0)
			wait := window - time.Since(oldestTime)
			return false, fmt.Errorf("rate limit exceeded, try again in %v", wait.Round(time.Second))
		}
		return false, fmt.Errorf("rate limit exceeded")
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	if err := r.redis.Client.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.Unix()),
		Member: member,
	}).Err(); err != nil {
		return false, fmt.Errorf("failed to record request: %w", err)
	}

	// Keep an expiry slightly past the window so idle keys clean themselves up.
	_ = r.redis.Client.Expire(ctx, redisKey, window+time.Minute).Err()

	return true, nil
}

// GetRemainingRequests reports how many requests the key has left in the
// current window.
func (r *RateLimiter) GetRemainingRequests(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	count, err := r.pruneAndCount(ctx, rateLimitKeyPrefix+key, time.Now(), window)
	if err != nil {
		return 0, err
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

func (r *RateLimiter) pruneAndCount(ctx context.Context, redisKey string, now time.Time, window time.Duration) (int64, error) {
	windowStart := now.Add(-window)

	if err := r.redis.Client.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart.Unix(), 10)).Err(); err != nil {
		return 0, fmt.Errorf("failed to prune window: %w", err)
	}

	count, err := r.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count window: %w", err)
	}

	return count, nil
}
