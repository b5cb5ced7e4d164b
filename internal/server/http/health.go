package http

import (
	"context"
	"sync"
	"time"

	"go-storefront/internal/discovery/etcd"
	"go-storefront/internal/metrics"
	"go-storefront/internal/mq/kafka"
	redisrepo "go-storefront/internal/repository/redis"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// depCheck 单个依赖的探测；check 为 nil 表示未配置
type depCheck struct {
	name    string
	timeout time.Duration
	gauge   prometheus.Gauge
	check   func(ctx context.Context) error
}

// HealthChecker 聚合健康检查（liveness / readiness）
type HealthChecker struct {
	deps []depCheck
	now  func() time.Time

	cacheMu     sync.Mutex
	cacheResult map[string]interface{}
	cacheCode   int
	cacheExpiry time.Time
	cacheTTL    time.Duration
}

func NewHealthChecker(db *gorm.DB, r *redisrepo.Client, p *kafka.Producer, e *etcd.Client) *HealthChecker {
	deps := []depCheck{
		{name: "db", timeout: 300 * time.Millisecond, gauge: metrics.DBUp},
		{name: "redis", timeout: 250 * time.Millisecond, gauge: metrics.RedisUp},
		{name: "kafka", timeout: 250 * time.Millisecond, gauge: metrics.KafkaUp},
		{name: "etcd", timeout: 250 * time.Millisecond, gauge: metrics.EtcdUp},
	}
	if db != nil {
		deps[0].check = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if r != nil {
		deps[1].check = r.Ping
	}
	if p != nil {
		deps[2].check = p.Ping
	}
	if e != nil {
		deps[3].check = func(ctx context.Context) error {
			_, err := e.Get(ctx, "health")
			return err
		}
	}
	return newHealthChecker(deps)
}

func newHealthChecker(deps []depCheck) *HealthChecker {
	return &HealthChecker{deps: deps, now: time.Now, cacheTTL: 2 * time.Second}
}

// Liveness 仅表示进程活着，不依赖外部组件
func (h *HealthChecker) Liveness() map[string]interface{} {
	return map[string]interface{}{
		"status": "ok",
		"time":   h.now().Format(time.RFC3339),
	}
}

// Invalidate 丢弃缓存结果（/readyz?refresh=1）
func (h *HealthChecker) Invalidate() {
	h.cacheMu.Lock()
	h.cacheExpiry = time.Time{}
	h.cacheMu.Unlock()
}

// Readiness 并发检测已配置依赖，结果缓存 cacheTTL；未配置的依赖标记 disabled 不影响状态
func (h *HealthChecker) Readiness(ctx context.Context) (map[string]interface{}, int) {
	h.cacheMu.Lock()
	if h.now().Before(h.cacheExpiry) && h.cacheResult != nil {
		res, code := h.cacheResult, h.cacheCode
		h.cacheMu.Unlock()
		return res, code
	}
	h.cacheMu.Unlock()

	type depResult struct {
		name     string
		up       bool
		disabled bool
		err      string
		dur      time.Duration
	}
	results := make([]depResult, len(h.deps))
	var wg sync.WaitGroup
	for i, d := range h.deps {
		if d.check == nil {
			results[i] = depResult{name: d.name, disabled: true}
			continue
		}
		wg.Add(1)
		go func(i int, d depCheck) {
			defer wg.Done()
			start := time.Now()
			out := depResult{name: d.name}
			ctx2, cancel := context.WithTimeout(ctx, d.timeout)
			if err := d.check(ctx2); err != nil {
				out.err = err.Error()
			} else {
				out.up = true
			}
			cancel()
			out.dur = time.Since(start)
			metrics.DependencyCheckDuration.WithLabelValues(d.name).Observe(out.dur.Seconds())
			if d.gauge != nil {
				if out.up {
					d.gauge.Set(1)
				} else {
					d.gauge.Set(0)
				}
			}
			results[i] = out
		}(i, d)
	}
	wg.Wait()

	res := map[string]interface{}{
		"status": "ok",
		"time":   h.now().Format(time.RFC3339),
	}
	detail := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		ms := float64(r.dur.Microseconds()) / 1000.0
		switch {
		case r.disabled:
			res[r.name] = "disabled"
		case r.up:
			res[r.name] = "up"
		default:
			res[r.name] = r.err
			res["status"] = "degraded"
		}
		res[r.name+"_duration_ms"] = ms
		detail = append(detail, map[string]interface{}{"dep": r.name, "up": r.up, "disabled": r.disabled, "error": r.err, "duration_ms": ms})
	}
	res["detail"] = detail

	code := 200
	if res["status"] != "ok" {
		code = 503
	}
	h.cacheMu.Lock()
	h.cacheResult = res
	h.cacheCode = code
	h.cacheExpiry = h.now().Add(h.cacheTTL)
	h.cacheMu.Unlock()
	return res, code
}
