package redisrepo

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

type Client struct{ *redis.Client }

var onceInstr sync.Once

func New(cfg Config) *Client {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	onceInstr.Do(func() { _ = redisotel.InstrumentTracing(rdb) })
	return &Client{rdb}
}

// Wrap 复用已有客户端（测试容器）
func Wrap(rdb *redis.Client) *Client { return &Client{rdb} }

func (c *Client) Ping(ctx context.Context) error { return c.Client.Ping(ctx).Err() }

func (c *Client) Close() error { return c.Client.Close() }

// hincrCapped 累加后不超过上限；结果 <=0 时删除字段。返回新值
var hincrCapped = redis.NewScript(`
local v = redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[2])
local max = tonumber(ARGV[3])
if v > max then
  redis.call('HSET', KEYS[1], ARGV[1], max)
  v = max
end
if v <= 0 then
  redis.call('HDEL', KEYS[1], ARGV[1])
  v = 0
end
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return v
`)

// HIncrCapped 原子累加哈希字段，并刷新整个 key 的过期时间
func (c *Client) HIncrCapped(ctx context.Context, key, field string, delta, max int64, ttl time.Duration) (int64, error) {
	return hincrCapped.Run(ctx, c.Client, []string{key}, field, delta, max, ttl.Milliseconds()).Int64()
}

// HSetTTL 设置字段并刷新过期时间
func (c *Client) HSetTTL(ctx context.Context, key, field string, val interface{}, ttl time.Duration) error {
	pipe := c.Client.TxPipeline()
	pipe.HSet(ctx, key, field, val)
	pipe.PExpire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *Client) HDel(ctx context.Context, key string, fields ...string) error {
	return c.Client.HDel(ctx, key, fields...).Err()
}

func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.Client.HGetAll(ctx, key).Result()
}
