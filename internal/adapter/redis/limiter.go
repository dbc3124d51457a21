package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowScript increments the key and starts its window on the first hit,
// atomically, so concurrent callers never see a counter without a TTL.
var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// WindowLimiter allows at most limit calls per key in each fixed window.
// Counters live in Redis, so every instance of the server shares them.
type WindowLimiter struct {
	client redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

// NewWindowLimiter stores its counters under prefix.
func NewWindowLimiter(client redis.Scripter, prefix string, limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{client: client, limit: limit, window: window, prefix: prefix}
}

// Allow consumes one call for key.
func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := windowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}
	return count <= l.limit, nil
}
