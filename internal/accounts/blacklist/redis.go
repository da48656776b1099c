package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces blacklist keys.
const DefaultRedisPrefix = "tukcommunity:blacklist:"

// Redis keeps one key per revoked jti that expires together with the token,
// so the set never needs cleaning up.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

func (b *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return n > 0, nil
}

// Revoke is a no-op for tokens that have already expired; they are rejected
// on expiry alone.
func (b *Redis) Revoke(ctx context.Context, req RevokeRequest) error {
	ttl := req.ExpiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	// Round up so the key never expires before the token does.
	ttl = ttl.Truncate(time.Second) + time.Second

	if err := b.client.Set(ctx, b.prefix+req.JTI, 1, ttl).Err(); err != nil {
		return fmt.Errorf("blacklist write: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (b *Redis) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
