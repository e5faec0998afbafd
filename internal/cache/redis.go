package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/promptkeeper/promptkeeper/internal/record"
	"github.com/redis/go-redis/v9"
)

const (
	topIndustryKey = "industry:top"
	generationKey  = "industry:gen"
)

// storeIfCurrent sets KEYS[2] only while the generation in KEYS[1] still
// equals ARGV[1], so a fill computed before an invalidation is dropped.
var storeIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisReportCache stores the most-frequent-industry report in Redis.
// The report is stored as JSON under "<prefix>industry:top"; an empty report is
// stored as JSON null so that "no prompts" is a cache hit too. Every
// invalidation bumps "<prefix>industry:gen".
type RedisReportCache struct {
	client *redis.Client
	prefix string
}

// NewRedisReportCache creates a Redis-backed report cache. Prefix may be empty.
func NewRedisReportCache(client *redis.Client, prefix string) *RedisReportCache {
	if prefix == "" {
		prefix = "report:"
	}
	return &RedisReportCache{client: client, prefix: prefix}
}

func (c *RedisReportCache) key() string {
	return c.prefix + topIndustryKey
}

func (c *RedisReportCache) genKey() string {
	return c.prefix + generationKey
}

// Generation returns the current invalidation generation. Read it before
// computing a report and pass it to StoreTopIndustry.
func (c *RedisReportCache) Generation(ctx context.Context) (int64, error) {
	n, err := c.client.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// TopIndustry returns the cached report and whether it was present.
func (c *RedisReportCache) TopIndustry(ctx context.Context) (*record.IndustryCount, bool, error) {
	b, err := c.client.Get(ctx, c.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var top *record.IndustryCount
	if err := json.Unmarshal(b, &top); err != nil {
		return nil, false, err
	}
	return top, true, nil
}

// StoreTopIndustry caches top unless the cache was invalidated after gen was
// read. It reports whether the value was stored.
func (c *RedisReportCache) StoreTopIndustry(ctx context.Context, top *record.IndustryCount, gen int64, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(top)
	if err != nil {
		return false, err
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	keys := []string{c.genKey(), c.key()}
	n, err := storeIfCurrent.Run(ctx, c.client, keys, strconv.FormatInt(gen, 10), string(b), ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate drops the cached report and bumps the generation so that
// in-flight fills started earlier are discarded.
func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey())
		pipe.Del(ctx, c.key())
		return nil
	})
	return err
}

// Ping checks the connection; used by readiness.
func (c *RedisReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
