package http

import (
	"context"
	"time"

	"go-storefront/internal/logging"
	"go-storefront/internal/security/jwt"
	handlerset "go-storefront/internal/server/http/handler"
	"go-storefront/internal/server/http/middleware"
	obs "go-storefront/internal/server/http/middleware/observability"
	sec "go-storefront/internal/server/http/middleware/security"
	"go-storefront/internal/service"
	"go-storefront/internal/util/retcode"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 仅负责分组与中间件装配，具体业务放在 handler 层
func NewRouter(jwtm *jwt.Manager, logger *logging.Logger, hc *HealthChecker, sink service.AuditSink, h *handlerset.HandlerSet) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS(), obs.TraceMiddleware(), obs.LoggerContextMiddleware(logger),
		obs.AccessLog(logger), middleware.ResponseWrapper(), obs.Metrics())

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, hc.Liveness()) })
	r.GET("/readyz", func(c *gin.Context) {
		if c.Query("refresh") == "1" {
			hc.Invalidate()
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()
		res, code := hc.Readiness(ctx)
		c.JSON(code, res)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 后台：认证 + 操作日志
	adminGrp := r.Group("/admin", sec.AdminAuth(jwtm, logger), obs.OperationLog(sink, logger))
	{
		auditGroup := adminGrp.Group("/AuditLog")
		{
			auditGroup.GET("/index", h.AuditLog.Index)
			auditGroup.GET("/statistics", h.AuditLog.Statistics)
			auditGroup.GET("/categories", h.AuditLog.Categories)
			auditGroup.POST("/add", h.AuditLog.Add)
		}
		logGroup := adminGrp.Group("/Log")
		{
			logGroup.GET("/index", h.Log.List)
		}
		productGroup := adminGrp.Group("/Product")
		{
			productGroup.POST("/add", h.Product.Add)
			productGroup.POST("/editPrice", h.Product.EditPrice)
			productGroup.GET("/changeVisibility", obs.Mutating(), h.Product.ChangeVisibility)
		}
		cacheGroup := adminGrp.Group("/Cache")
		{
			cacheGroup.GET("/metrics", h.Cache.Metrics)
			cacheGroup.GET("/reset", obs.Mutating(), h.Cache.Reset)
		}
		debugGroup := adminGrp.Group("/Debug")
		{
			debugGroup.GET("/peekAudit", h.Debug.PeekAudit)
		}
	}

	// 商城：游客或 customer 令牌
	shopGrp := r.Group("/shop", sec.OptionalCustomer(jwtm))
	{
		shopGrp.GET("/products", h.ShopProducts.List)
		shopGrp.GET("/products/:id", h.ShopProducts.Detail)
		shopGrp.GET("/cart", h.Cart.List)
		cart := shopGrp.Group("/cart")
		{
			cart.POST("/add", h.Cart.Add)
			cart.POST("/update", h.Cart.Update)
			cart.POST("/increment", h.Cart.Increment)
			cart.POST("/decrement", h.Cart.Decrement)
			cart.POST("/remove", h.Cart.Remove)
		}
	}

	// 统一 404
	r.NoRoute(func(c *gin.Context) {
		c.JSON(200, gin.H{"code": retcode.NOT_EXISTS, "msg": "不存在", "data": gin.H{}})
	})
	return r
}
