package observability

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/logging"
	"go-storefront/internal/service"
	"go-storefront/internal/util/retcode"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	mutatingKey  = "oplog_mutating"
	maxBodyBytes = 4096
)

var sensitiveKeys = []string{"password", "passwd", "pwd", "new_password", "old_password", "token", "authorization", "secret"}

// Mutating 标记有副作用的 GET 路由（旧接口沿用 GET 修改状态）
func Mutating() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(mutatingKey, true)
		c.Next()
	}
}

// OperationLog 成功的修改类请求完成后写一条 ACTION 事件
// category 取路由第二段，actionType 取第三段，如 /admin/Product/editPrice
func OperationLog(sink service.AuditSink, l *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyBytes []byte
		if c.Request.Body != nil && c.Request.Method != http.MethodGet {
			b, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
			bodyBytes = b
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(b), c.Request.Body))
		}
		bw := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = bw
		c.Next()

		if !isMutating(c) || !succeeded(c, bw.buf.Bytes()) {
			return
		}
		category, verb := routeSegments(c.FullPath())
		if category == "" {
			return
		}
		if verb == "" {
			verb = strings.ToLower(c.Request.Method)
		}
		e := service.AuditEntry{
			LogType:    model.LogTypeAction,
			Category:   category,
			ActionType: verb,
			Title:      upperFirst(verb) + " " + category,
			IPAddress:  c.ClientIP(),
			Details:    details(c, bodyBytes),
		}
		if id := c.GetInt64("admin_id"); id > 0 {
			e.AdminID = &id
		}
		if err := sink.Emit(c.Request.Context(), e); err != nil {
			logging.FromContext(c.Request.Context(), l).Warn("oplog_emit_failed",
				zap.String("path", c.FullPath()), zap.Error(err))
		}
	}
}

func isMutating(c *gin.Context) bool {
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return c.GetBool(mutatingKey)
}

// succeeded 业务码为 SUCCESS；兼容 c.Set("resp") 与直接写出两种风格
func succeeded(c *gin.Context, written []byte) bool {
	if c.Writer.Status() >= http.StatusBadRequest {
		return false
	}
	if v, ok := c.Get("resp"); ok {
		if body, ok := v.(gin.H); ok {
			code, has := body["code"]
			return !has || code == retcode.SUCCESS
		}
	}
	if len(written) == 0 {
		return false
	}
	var env struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(written, &env); err != nil {
		return false
	}
	return env.Code == retcode.SUCCESS
}

func routeSegments(path string) (category, verb string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 {
		category = parts[1]
	}
	if len(parts) >= 3 {
		verb = parts[2]
	}
	return
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

func details(c *gin.Context, body []byte) string {
	parts := make([]string, 0, 2)
	if q := c.Request.URL.RawQuery; q != "" {
		if len(q) > 512 {
			q = q[:512]
		}
		parts = append(parts, "query="+q)
	}
	if b := sanitizeJSON(body); b != "" {
		parts = append(parts, "body="+b)
	}
	return strings.Join(parts, " ")
}

type bodyWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	if remain := maxBodyBytes - w.buf.Len(); remain > 0 {
		if len(b) > remain {
			w.buf.Write(b[:remain])
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func sanitizeJSON(src []byte) string {
	if len(src) == 0 {
		return ""
	}
	var m interface{}
	if json.Unmarshal(src, &m) != nil {
		return string(src)
	}
	m = sanitizeValue(m)
	b, err := json.Marshal(m)
	if err != nil {
		return string(src)
	}
	return string(b)
}

func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, vv := range val {
			if isSensitive(k) {
				val[k] = "***"
				continue
			}
			val[k] = sanitizeValue(vv)
		}
	case []interface{}:
		for i, elem := range val {
			val[i] = sanitizeValue(elem)
		}
	}
	return v
}

func isSensitive(k string) bool {
	lower := strings.ToLower(k)
	for _, s := range sensitiveKeys {
		if lower == s {
			return true
		}
	}
	return false
}
