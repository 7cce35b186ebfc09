package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sequencebio/icadata/internal/config"
)

const (
	tokenKeyPrefix  = "icadata:token:"
	defaultTokenTTL = time.Hour
	pingTimeout     = 5 * time.Second
	scanBatchSize   = 100
)

// TokenCache keeps ICA bearer tokens between process runs so a short-lived
// command does not prompt for credentials every time.
type TokenCache interface {
	GetToken(ctx context.Context, key string) (string, bool, error)
	SetToken(ctx context.Context, key, token string) error
	DeleteToken(ctx context.Context, key string) error
	// InvalidateAll drops every cached token and reports how many were removed.
	InvalidateAll(ctx context.Context) (int, error)
	Close() error
}

type redisTokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopTokenCache struct{}

// NewTokenCache returns a redis-backed cache when caching is enabled and a
// no-op cache otherwise.
func NewTokenCache(cfg config.CacheConfig) (TokenCache, error) {
	if !cfg.Enabled {
		return &noopTokenCache{}, nil
	}

	opts, err := tokenRedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("token cache unreachable at %s: %w", opts.Addr, err)
	}

	ttl := cfg.TokenTTL()
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &redisTokenCache{client: client, ttl: ttl}, nil
}

// tokenRedisOptions prefers REDIS_URL and falls back to host, port and db,
// defaulting to a local server.
func tokenRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("token cache: invalid REDIS_URL: %w", err)
		}
		return opts, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func NewNoopTokenCache() TokenCache {
	return &noopTokenCache{}
}

// TokenKey derives the cache key for a token issued by icaURL for tenant.
func TokenKey(icaURL, tenant string) string {
	sum := sha1.Sum([]byte(strings.TrimSuffix(icaURL, "/") + "|" + tenant))
	return tokenKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *redisTokenCache) GetToken(ctx context.Context, key string) (string, bool, error) {
	token, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return token, true, nil
}

func (c *redisTokenCache) SetToken(ctx context.Context, key, token string) error {
	if err := c.client.Set(ctx, key, token, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisTokenCache) DeleteToken(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *redisTokenCache) InvalidateAll(ctx context.Context) (int, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, tokenKeyPrefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis delete failed: %w", err)
	}
	return int(n), nil
}

func (c *redisTokenCache) Close() error {
	return c.client.Close()
}

func (n *noopTokenCache) GetToken(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (n *noopTokenCache) SetToken(context.Context, string, string) error {
	return nil
}

func (n *noopTokenCache) DeleteToken(context.Context, string) error {
	return nil
}

func (n *noopTokenCache) InvalidateAll(context.Context) (int, error) {
	return 0, nil
}

func (n *noopTokenCache) Close() error {
	return nil
}
