package middleware

import (
	"net/http"

	"go-storefront/internal/util/retcode"

	"github.com/gin-gonic/gin"
)

// RespKey handler 可以只 c.Set(RespKey, gin.H{...})，由 ResponseWrapper 统一输出
const RespKey = "resp"

func ResponseWrapper() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.IsAborted() || c.Writer.Written() {
			return
		}
		v, exists := c.Get(RespKey)
		if !exists {
			return
		}
		body, ok := v.(gin.H)
		if !ok {
			return
		}
		if _, ok := body["code"]; !ok {
			body["code"] = retcode.SUCCESS
		}
		if _, ok := body["msg"]; !ok {
			body["msg"] = "success"
		}
		if _, ok := body["data"]; !ok {
			body["data"] = gin.H{}
		}
		c.JSON(http.StatusOK, body)
	}
}
