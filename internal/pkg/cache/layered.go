package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// LayeredCache L1 (本地) + L2 (redis)
// 读 L1 -> L2 (命中回填 L1) -> miss；写/删两层同时进行
type LayeredCache struct {
	L1 Cache
	L2 Cache

	hitsL1     atomic.Uint64
	hitsL2     atomic.Uint64
	miss       atomic.Uint64
	setOps     atomic.Uint64
	delOps     atomic.Uint64
	backfillL1 atomic.Uint64
}

type LayeredMetrics struct {
	HitsL1     uint64  `json:"hits_l1"`
	HitsL2     uint64  `json:"hits_l2"`
	Miss       uint64  `json:"miss"`
	SetOps     uint64  `json:"set_ops"`
	DelOps     uint64  `json:"del_ops"`
	BackfillL1 uint64  `json:"backfill_l1"`
	HitRate    float64 `json:"hit_rate"`
}

const defaultBackfillTTL = 10 * time.Second

func NewLayered(l1, l2 Cache) *LayeredCache { return &LayeredCache{L1: l1, L2: l2} }

func (c *LayeredCache) Get(ctx context.Context, key string) (string, error) {
	if c.L1 != nil {
		if v, _ := c.L1.Get(ctx, key); v != "" {
			c.hitsL1.Add(1)
			return v, nil
		}
	}
	if c.L2 != nil {
		if v, _ := c.L2.Get(ctx, key); v != "" {
			c.hitsL2.Add(1)
			if c.L1 != nil {
				ttl := defaultBackfillTTL
				if tf, ok := c.L2.(TTLFetcher); ok {
					if d, ok := tf.RemainingTTL(ctx, key); ok {
						ttl = d
					}
				}
				_ = c.L1.SetEX(ctx, key, v, ttl)
				c.backfillL1.Add(1)
			}
			return v, nil
		}
	}
	c.miss.Add(1)
	return "", nil
}

func (c *LayeredCache) SetEX(ctx context.Context, key, val string, ttl time.Duration) error {
	if c.L1 != nil {
		_ = c.L1.SetEX(ctx, key, val, ttl)
	}
	var err error
	if c.L2 != nil {
		err = c.L2.SetEX(ctx, key, val, ttl)
	}
	c.setOps.Add(1)
	return err
}

func (c *LayeredCache) Del(ctx context.Context, keys ...string) error {
	if c.L1 != nil {
		_ = c.L1.Del(ctx, keys...)
	}
	var err error
	if c.L2 != nil {
		err = c.L2.Del(ctx, keys...)
	}
	c.delOps.Add(1)
	return err
}

func (c *LayeredCache) SnapshotMetrics() LayeredMetrics {
	m := LayeredMetrics{
		HitsL1:     c.hitsL1.Load(),
		HitsL2:     c.hitsL2.Load(),
		Miss:       c.miss.Load(),
		SetOps:     c.setOps.Load(),
		DelOps:     c.delOps.Load(),
		BackfillL1: c.backfillL1.Load(),
	}
	if total := m.HitsL1 + m.HitsL2 + m.Miss; total > 0 {
		m.HitRate = float64(m.HitsL1+m.HitsL2) / float64(total)
	}
	return m
}

func (c *LayeredCache) ResetMetrics() {
	for _, v := range []*atomic.Uint64{&c.hitsL1, &c.hitsL2, &c.miss, &c.setOps, &c.delOps, &c.backfillL1} {
		v.Store(0)
	}
}
