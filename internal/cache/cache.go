package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/Turquoise-stack/FLAT-CLUB/config"
	"github.com/redis/go-redis/v9"
)

// QueryCache memoizes listing search results in Redis for a short TTL.
// A nil *QueryCache is valid and behaves as a permanent miss, so the
// search path works unchanged when Redis is not configured.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New dials Redis from config. An empty address disables caching.
func New(ctx context.Context, cfg config.RedisConfig) (*QueryCache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	return &QueryCache{client: client, ttl: ttl}, nil
}

// Get loads a cached value into dest. The boolean reports a hit.
func (c *QueryCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(data), dest)
}

// Set stores a value under the key for the configured TTL.
func (c *QueryCache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Close releases the Redis connection.
func (c *QueryCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// QueryKey derives a stable cache key from canonically encoded query
// parameters. url.Values.Encode sorts by key, so equivalent filters map
// to the same digest regardless of parameter order.
func QueryKey(prefix string, values url.Values) string {
	sum := sha256.Sum256([]byte(values.Encode()))
	return prefix + ":" + hex.EncodeToString(sum[:])
}
