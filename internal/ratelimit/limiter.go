package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// fixedWindowScript counts requests per key in a window that starts with
// the key's first request. It returns {allowed, remaining, reset_unix}.
// Running it as one script keeps the check-and-increment atomic.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local max_requests = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local current = redis.call('GET', key)
	if current == false then
		redis.call('SET', key, 1, 'EX', window)
		return {1, max_requests - 1, now + window}
	end

	current = tonumber(current)
	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		redis.call('EXPIRE', key, window)
		ttl = window
	end

	if current < max_requests then
		redis.call('INCR', key)
		return {1, max_requests - current - 1, now + ttl}
	end
	return {0, 0, now + ttl}
`)

// RateLimiter is a Redis-backed fixed-window limiter shared by every
// server instance
type RateLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// NewFixedWindowLimiter allows maxRequests per key in each window
func NewFixedWindowLimiter(client *redis.Client, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow checks and counts one request for key
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowSeconds := int(rl.window.Seconds())
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	result, err := fixedWindowScript.Run(
		ctx,
		rl.client,
		[]string{keyPrefix + key},
		rl.maxRequests,
		windowSeconds,
		rl.now().Unix(),
	).Int64Slice()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(result) != 3 {
		return false, 0, time.Time{}, errors.New("rate limit check failed: unexpected result format")
	}

	allowed := result[0] == 1
	remaining := int(result[1])
	reset := time.Unix(result[2], 0)

	return allowed, remaining, reset, nil
}

// Reset clears the counter for key
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	return rl.client.Del(ctx, keyPrefix+key).Err()
}

// MaxRequests returns the maximum number of requests allowed per window
func (rl *RateLimiter) MaxRequests() int {
	return rl.maxRequests
}
