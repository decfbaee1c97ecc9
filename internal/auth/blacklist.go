package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist defines interface for checking revoked tokens
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
}

// RedisBlacklist backs logout: a revoked token ID stays blacklisted until
// the token itself would have expired.
type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (r *RedisBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, "blacklist:"+jti).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (r *RedisBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	return r.client.Set(ctx, "blacklist:"+jti, "revoked", ttl).Err()
}
