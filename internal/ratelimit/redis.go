package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Window keys outlive their second by one extra second to absorb clock skew
// between instances.
const redisWindowTTLSeconds = 2

var redisIncrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter implements a fixed-window rate limiter shared across
// processes via Redis.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter constructs a RedisLimiter.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: strings.TrimSpace(prefix)}
}

// Allow checks whether the request fits the limit for the current second.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" || l == nil || l.client == nil {
		return Result{Allowed: true}, nil
	}
	sec := now.Unix()
	reset := time.Unix(sec+1, 0).UTC()

	res, errEval := redisIncrScript.Run(ctx, l.client, []string{l.windowKey(key, sec)}, redisWindowTTLSeconds).Result()
	if errEval != nil {
		return Result{}, fmt.Errorf("rate limit redis: %w", errEval)
	}
	count, ok := res.(int64)
	if !ok {
		return Result{}, fmt.Errorf("rate limit redis: unexpected response type %T", res)
	}
	if count > int64(limit) {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: true, Remaining: remaining, Reset: reset}, nil
}

func (l *RedisLimiter) windowKey(key string, sec int64) string {
	secStr := strconv.FormatInt(sec, 10)
	if l.prefix == "" {
		return key + ":" + secStr
	}
	return l.prefix + ":" + key + ":" + secStr
}
