package observability

import (
	"strconv"
	"time"

	"go-storefront/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 按路由模板聚合，未匹配路由归为一类避免标签爆炸
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if infraPath(c.Request.URL.Path) {
			c.Next()
			return
		}
		metrics.Inflight.Inc()
		start := time.Now()
		c.Next()
		metrics.Inflight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
		metrics.RequestTotal.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
