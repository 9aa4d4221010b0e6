package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// RedisKeyPrefix namespaces cached profiles
const RedisKeyPrefix = "enrichment:"

type redisEntry struct {
	Profile   *types.CompanyProfile `json:"profile"`
	CachedAt  time.Time             `json:"cached_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// RedisCache stores profiles in Redis with a server-side expiry.
// The embedded expires_at is also checked so a skewed Redis clock never
// serves a stale profile.
type RedisCache struct {
	client redis.UniversalClient
	now    Clock
}

// NewRedisCache wraps an existing client. A nil clock uses time.Now.
func NewRedisCache(client redis.UniversalClient, clock Clock) *RedisCache {
	if clock == nil {
		clock = time.Now
	}
	return &RedisCache{client: client, now: clock}
}

// NewRedisCacheFromURL parses a redis:// URL and connects
func NewRedisCacheFromURL(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisCache(client, nil), nil
}

func redisKey(domain string) string {
	return RedisKeyPrefix + NormalizeDomain(domain)
}

// Get returns the cached profile if present and not expired
func (c *RedisCache) Get(ctx context.Context, domain string) (*types.CompanyProfile, bool, error) {
	raw, err := c.client.Get(ctx, redisKey(domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &CacheError{Op: "get", Domain: domain, Cause: err}
	}

	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, &CacheError{Op: "decode", Domain: domain, Cause: err}
	}
	if entry.Profile == nil {
		return nil, false, nil
	}

	if !c.now().Before(entry.ExpiresAt) {
		return nil, false, nil
	}
	return entry.Profile, true, nil
}

// Put upserts a profile with the given TTL
func (c *RedisCache) Put(ctx context.Context, domain string, profile *types.CompanyProfile, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	now := c.now().UTC()
	raw, err := json.Marshal(redisEntry{
		Profile:   profile,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return &CacheError{Op: "encode", Domain: domain, Cause: err}
	}
	if err := c.client.Set(ctx, redisKey(domain), raw, ttl).Err(); err != nil {
		return &CacheError{Op: "put", Domain: domain, Cause: err}
	}
	return nil
}

// Ping checks the server is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
