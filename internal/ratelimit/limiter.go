package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrRedisUnavailable  = errors.New("redis unavailable")
)

type Decision struct {
	Limit      int
	Remaining  int
	RetryAfter int // seconds
	Allowed    bool
}

type LimitConfig struct {
	Rate   int           `yaml:"rate"`
	Window time.Duration `yaml:"window"`
}

// Limiter is a fixed-window counter in Redis. The chat endpoint runs local
// LLM inference, so even a single aggressive client can starve the Pi; a
// coarse window is enough protection for a LAN deployment.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// incrScript bumps the window counter and starts its expiry on first hit.
var incrScript = redis.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if tonumber(current) == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	return current
`)

// Check counts a request against the key's window and decides admission.
func (l *Limiter) Check(ctx context.Context, key string, config LimitConfig) (*Decision, error) {
	count, err := incrScript.Run(ctx, l.client, []string{"rl:" + key}, config.Window.Milliseconds()).Int()
	if err != nil {
		return nil, ErrRedisUnavailable
	}

	remaining := config.Rate - count
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		Limit:      config.Rate,
		Remaining:  remaining,
		RetryAfter: int(config.Window.Seconds()),
		Allowed:    count <= config.Rate,
	}, nil
}
