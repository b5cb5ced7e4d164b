package observability

import (
	"time"

	"go-storefront/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var infraPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
	"/metrics": {},
}

// infraPath 探针与抓取请求不记访问日志、不计指标
func infraPath(p string) bool {
	_, ok := infraPaths[p]
	return ok
}

// AccessLog method, path, status, latency, ip
func AccessLog(l *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if infraPath(c.Request.URL.Path) {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		lg := logging.FromContext(c.Request.Context(), l)
		log := lg.Info
		if c.Writer.Status() >= 500 {
			log = lg.Error
		}
		log("http_access",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("size", c.Writer.Size()),
		)
	}
}
