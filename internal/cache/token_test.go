package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequencebio/icadata/internal/config"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, TokenCache) {
	t.Helper()
	mr := miniredis.RunT(t)

	tc, err := NewTokenCache(config.CacheConfig{
		Enabled:         true,
		RedisURL:        "redis://" + mr.Addr(),
		TokenTTLSeconds: 60,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tc.Close() })
	return mr, tc
}

func TestRedisTokenCacheRoundTrip(t *testing.T) {
	mr, tc := newTestCache(t)
	ctx := context.Background()
	key := TokenKey("https://ica.example/ica", "sequencebio")

	_, ok, err := tc.GetToken(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tc.SetToken(ctx, key, "tok"))
	token, ok, err := tc.GetToken(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(2 * time.Minute)
	_, ok, err = tc.GetToken(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTokenCacheInvalidate(t *testing.T) {
	mr, tc := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, tc.SetToken(ctx, TokenKey("https://a", "t1"), "one"))
	require.NoError(t, tc.SetToken(ctx, TokenKey("https://b", "t2"), "two"))

	n, err := tc.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("unrelated"))

	require.NoError(t, tc.SetToken(ctx, TokenKey("https://a", "t1"), "one"))
	require.NoError(t, tc.DeleteToken(ctx, TokenKey("https://a", "t1")))
	assert.False(t, mr.Exists(TokenKey("https://a", "t1")))
}

func TestTokenKeyIgnoresTrailingSlash(t *testing.T) {
	assert.Equal(t, TokenKey("https://a/ica", "t"), TokenKey("https://a/ica/", "t"))
	assert.NotEqual(t, TokenKey("https://a/ica", "t"), TokenKey("https://a/ica", "u"))
}

func TestDisabledCacheIsNoop(t *testing.T) {
	tc, err := NewTokenCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, tc.SetToken(ctx, "k", "v"))
	_, ok, err := tc.GetToken(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenRedisOptionsFromHost(t *testing.T) {
	opts, err := tokenRedisOptions(config.CacheConfig{RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	_, err = tokenRedisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}

func TestNewTokenCacheUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewTokenCache(config.CacheConfig{Enabled: true, RedisURL: "redis://" + addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token cache unreachable")
}
