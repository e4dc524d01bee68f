package cache_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/match-engine/internal/cache"
	"github.com/oggyb/match-engine/internal/config"
)

func newCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestLikesReceivedCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	_, ok, err := c.GetLikesReceived(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetLikesReceived(ctx, 7, 12))
	n, ok, err := c.GetLikesReceived(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)
	assert.Equal(t, cache.LikesReceivedTTL, mr.TTL("likes:received:7"))

	require.NoError(t, c.InvalidateLikesReceived(ctx, 7))
	_, ok, err = c.GetLikesReceived(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	sub := c.Client.Subscribe(ctx, "notifications")
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	require.NoError(t, c.Publish(ctx, "notifications", []byte(`{"type":"match"}`)))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"match"}`, msg.Payload)
}
