package cache

import (
	"context"
	"errors"
	"time"

	redisrepo "go-storefront/internal/repository/redis"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter L2；key 不存在返回空串，连接类错误原样返回
type RedisAdapter struct{ c *redisrepo.Client }

func NewRedisAdapter(c *redisrepo.Client) *RedisAdapter { return &RedisAdapter{c: c} }

func (r *RedisAdapter) Get(ctx context.Context, key string) (string, error) {
	v, err := r.c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (r *RedisAdapter) SetEX(ctx context.Context, key, val string, ttl time.Duration) error {
	return r.c.Client.Set(ctx, key, val, ttl).Err()
}

func (r *RedisAdapter) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.c.Client.Del(ctx, keys...).Err()
}

func (r *RedisAdapter) RemainingTTL(ctx context.Context, key string) (time.Duration, bool) {
	d, err := r.c.Client.PTTL(ctx, key).Result()
	// -2 不存在, -1 无过期
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
