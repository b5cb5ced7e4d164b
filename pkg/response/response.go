// Package response 统一 {code,msg,data} 信封，HTTP 状态恒为 200
package response

import (
	"net/http"

	"go-storefront/internal/util/retcode"

	"github.com/gin-gonic/gin"
)

type Body struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(http.StatusOK, Body{Code: retcode.SUCCESS, Msg: retcode.Message(retcode.SUCCESS), Data: data})
}

// Error code 必须是负的业务码，误传 HTTP 状态码时按 INVALID 处理；msg 为空取默认文案
func Error(c *gin.Context, code int, msg string) {
	if code >= 0 {
		code = retcode.INVALID
	}
	if msg == "" {
		msg = retcode.Message(code)
	}
	c.JSON(http.StatusOK, Body{Code: code, Msg: msg, Data: gin.H{}})
}
