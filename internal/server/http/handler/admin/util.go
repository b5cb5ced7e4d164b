package admin

import (
	"strconv"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

func qInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

func qInt64(c *gin.Context, key string) int64 {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	i, _ := strconv.ParseInt(v, 10, 64)
	return i
}

// adminID 由 AdminAuth 写入
func adminID(c *gin.Context) *int64 {
	id := c.GetInt64("admin_id")
	if id <= 0 {
		return nil
	}
	return &id
}

func actor(c *gin.Context) service.Actor {
	return service.Actor{AdminID: adminID(c), IP: c.ClientIP()}
}

// auditRow 列表行：完整 title 之外附带截断后的展示标题
type auditRow struct {
	model.AuditEvent
	ShortTitle string `json:"display_title"`
}

func auditRows(list []model.AuditEvent) []auditRow {
	out := make([]auditRow, 0, len(list))
	for _, e := range list {
		out = append(out, auditRow{AuditEvent: e, ShortTitle: e.DisplayTitle()})
	}
	return out
}
