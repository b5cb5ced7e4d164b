package observability

import (
	"go-storefront/internal/logging"

	"github.com/gin-gonic/gin"
)

// LoggerContextMiddleware 把带 trace_id 的 logger 放入请求 context
// 需放在 TraceMiddleware 之后；admin_id 由认证中间件补充
func LoggerContextMiddleware(base *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = logging.IntoContext(ctx, base.WithContext(ctx))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
