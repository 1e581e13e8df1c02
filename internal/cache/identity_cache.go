package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/daily-ledger/internal/policy"
	"github.com/redis/go-redis/v9"
)

// IdentityCache remembers which token subjects still resolve to a user, so
// that verifying a bearer token does not hit the database on every request.
// Implementations treat errors as misses.
type IdentityCache interface {
	Get(ctx context.Context, id uint) (*policy.Identity, bool)
	Set(ctx context.Context, identity policy.Identity)
	Invalidate(ctx context.Context, id uint)
}

// RedisIdentityCache stores identities in Redis hashes with a TTL
type RedisIdentityCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisIdentityCache creates a cache on top of a Redis client
func NewRedisIdentityCache(client *redis.Client, ttl time.Duration) *RedisIdentityCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisIdentityCache{redis: client, ttl: ttl}
}

func identityKey(id uint) string {
	return fmt.Sprintf("identity:%d", id)
}

// Get returns the cached identity for id
func (c *RedisIdentityCache) Get(ctx context.Context, id uint) (*policy.Identity, bool) {
	fields, err := c.redis.HGetAll(ctx, identityKey(id)).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	parsed, err := strconv.ParseUint(fields["id"], 10, 64)
	if err != nil || uint(parsed) != id {
		return nil, false
	}
	return &policy.Identity{
		ID:     id,
		UserID: fields["userid"],
		Role:   policy.Role(fields["role"]),
	}, true
}

// Set caches identity until the TTL elapses
func (c *RedisIdentityCache) Set(ctx context.Context, identity policy.Identity) {
	key := identityKey(identity.ID)
	pipe := c.redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"id":     strconv.FormatUint(uint64(identity.ID), 10),
		"userid": identity.UserID,
		"role":   string(identity.Role),
	})
	pipe.Expire(ctx, key, c.ttl)
	_, _ = pipe.Exec(ctx)
}

// Invalidate drops the cached identity for id
func (c *RedisIdentityCache) Invalidate(ctx context.Context, id uint) {
	c.redis.Del(ctx, identityKey(id))
}

// NopIdentityCache never caches; every lookup goes to the database
type NopIdentityCache struct{}

func (NopIdentityCache) Get(context.Context, uint) (*policy.Identity, bool) { return nil, false }

func (NopIdentityCache) Set(context.Context, policy.Identity) {}

func (NopIdentityCache) Invalidate(context.Context, uint) {}
