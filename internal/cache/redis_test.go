package cache

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/promptkeeper/promptkeeper/internal/record"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*mr.Miniredis, *RedisReportCache) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return m, NewRedisReportCache(client, "test:report:")
}

func TestRedisReportCache_StoreGetInvalidate(t *testing.T) {
	m, c := newCache(t)
	ctx := context.Background()

	_, hit, err := c.TopIndustry(ctx)
	require.NoError(t, err)
	require.False(t, hit)

	stored, err := c.StoreTopIndustry(ctx, &record.IndustryCount{Industry: "x", Count: 2}, 0, time.Minute)
	require.NoError(t, err)
	require.True(t, stored)
	require.True(t, m.Exists("test:report:industry:top"))

	top, hit, err := c.TopIndustry(ctx)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, &record.IndustryCount{Industry: "x", Count: 2}, top)

	require.NoError(t, c.Invalidate(ctx))
	_, hit, err = c.TopIndustry(ctx)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestRedisReportCache_EmptyReportIsAHit(t *testing.T) {
	_, c := newCache(t)
	ctx := context.Background()

	stored, err := c.StoreTopIndustry(ctx, nil, 0, time.Minute)
	require.NoError(t, err)
	require.True(t, stored)
	top, hit, err := c.TopIndustry(ctx)
	require.NoError(t, err)
	require.True(t, hit)
	require.Nil(t, top)
}

func TestRedisReportCache_TTLExpiry(t *testing.T) {
	m, c := newCache(t)
	ctx := context.Background()

	stored, err := c.StoreTopIndustry(ctx, &record.IndustryCount{Industry: "x", Count: 1}, 0, time.Second)
	require.NoError(t, err)
	require.True(t, stored)
	m.FastForward(2 * time.Second)

	_, hit, err := c.TopIndustry(ctx)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestRedisReportCache_DefaultPrefixAndPing(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	c := NewRedisReportCache(redis.NewClient(&redis.Options{Addr: m.Addr()}), "")
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	stored, err := c.StoreTopIndustry(ctx, &record.IndustryCount{Industry: "y", Count: 3}, 0, 0)
	require.NoError(t, err)
	require.True(t, stored)
	require.True(t, m.Exists("report:industry:top"))
}

func TestRedisReportCache_StaleFillIsDropped(t *testing.T) {
	m, c := newCache(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	require.Zero(t, gen)

	// a write lands between reading the generation and filling the cache
	require.NoError(t, c.Invalidate(ctx))
	stored, err := c.StoreTopIndustry(ctx, nil, gen, time.Minute)
	require.NoError(t, err)
	require.False(t, stored)
	require.False(t, m.Exists("test:report:industry:top"))

	gen, err = c.Generation(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), gen)
	stored, err = c.StoreTopIndustry(ctx, &record.IndustryCount{Industry: "x", Count: 1}, gen, time.Minute)
	require.NoError(t, err)
	require.True(t, stored)

	top, hit, err := c.TopIndustry(ctx)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "x", top.Industry)
}
