package security

import (
	"context"
	"strings"

	"go-storefront/internal/logging"
	"go-storefront/internal/security/jwt"
	"go-storefront/internal/util/retcode"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	AdminIDKey = "admin_id"
	UserIDKey  = "user_id"
)

func bearer(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(auth[7:])
	return tok, tok != ""
}

// AdminAuth 后台接口：要求 admin scope 令牌，admin_id 写入 gin 与请求 context
func AdminAuth(j *jwt.Manager, lg *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearer(c)
		if !ok {
			response.Error(c, retcode.AUTH_ERROR, "missing token")
			c.Abort()
			return
		}
		claims, err := j.ParseScoped(tok, jwt.ScopeAdmin)
		if err != nil {
			logging.FromContext(c.Request.Context(), lg).Info("admin_auth_rejected", zap.Error(err))
			response.Error(c, retcode.AUTH_ERROR, "invalid token")
			c.Abort()
			return
		}
		c.Set(AdminIDKey, claims.SubjectID)
		ctx := context.WithValue(c.Request.Context(), logging.AdminIDKey, claims.SubjectID)
		ctx = logging.IntoContext(ctx, lg.WithContext(ctx))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalCustomer 商城接口：有合法 customer 令牌则写入 user_id，否则按游客处理
// 带了令牌但无效时拒绝，避免静默降级为游客
func OptionalCustomer(j *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearer(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := j.ParseScoped(tok, jwt.ScopeCustomer)
		if err != nil {
			response.Error(c, retcode.AUTH_ERROR, "invalid token")
			c.Abort()
			return
		}
		c.Set(UserIDKey, claims.SubjectID)
		c.Next()
	}
}
