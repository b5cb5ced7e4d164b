package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Cache 字符串 KV 缓存，序列化由调用方负责
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEX(ctx context.Context, key, val string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// TTLFetcher 可选能力：返回剩余 TTL，LayeredCache 回填 L1 时使用
type TTLFetcher interface {
	RemainingTTL(ctx context.Context, key string) (time.Duration, bool)
}

type entry struct {
	val string
	exp time.Time
}

// Local 进程内 TTL 缓存 (L1)
type Local struct {
	mu   sync.RWMutex
	data map[string]entry
}

func NewLocal() *Local { return &Local{data: make(map[string]entry)} }

func (l *Local) lookup(key string) (entry, bool) {
	l.mu.RLock()
	e, ok := l.data[key]
	l.mu.RUnlock()
	if !ok || (!e.exp.IsZero() && time.Now().After(e.exp)) {
		return entry{}, false
	}
	return e, true
}

func (l *Local) Get(_ context.Context, key string) (string, error) {
	e, _ := l.lookup(key)
	return e.val, nil
}

func (l *Local) SetEX(_ context.Context, key, val string, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	l.mu.Lock()
	l.data[key] = entry{val: val, exp: exp}
	l.mu.Unlock()
	return nil
}

func (l *Local) Del(_ context.Context, keys ...string) error {
	l.mu.Lock()
	for _, k := range keys {
		delete(l.data, k)
	}
	l.mu.Unlock()
	return nil
}

func (l *Local) RemainingTTL(_ context.Context, key string) (time.Duration, bool) {
	e, ok := l.lookup(key)
	if !ok || e.exp.IsZero() {
		return 0, false
	}
	return time.Until(e.exp), true
}

// GetJSON 未命中或解码失败都返回 false
func GetJSON(ctx context.Context, c Cache, key string, out interface{}) bool {
	if c == nil {
		return false
	}
	s, err := c.Get(ctx, key)
	if err != nil || s == "" {
		return false
	}
	return json.Unmarshal([]byte(s), out) == nil
}

func SetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.SetEX(ctx, key, string(b), ttl)
}
