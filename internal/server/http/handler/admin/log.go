package admin

import (
	"go-storefront/internal/logging"
	"go-storefront/internal/service"
	"go-storefront/internal/util/retcode"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogHandler 旧管理员活动页，数据来自统一存储的 ACTION 事件
type LogHandler struct{ d Dependencies }

func NewLogHandler(d Dependencies) *LogHandler { return &LogHandler{d: d} }

// List GET /admin/Log/index?admin_filter=&action=&date=&page=
func (h *LogHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	p := service.LegacyActivityParams{
		AdminFilter: c.Query("admin_filter"),
		Action:      c.Query("action"),
		Date:        c.Query("date"),
	}
	if h.d.Screen != nil {
		p.Action = h.d.Screen.Filter(ctx, "action", p.Action, adminID(c), c.ClientIP())
	}
	res, err := h.d.Audit.LegacyAdminActivity(ctx, p, service.ParsePage(c.Query("page")))
	if err != nil {
		logging.FromContext(ctx, h.d.Logger).Error("admin_activity_read_failed", zap.Error(err))
		response.Error(c, retcode.DB_READ_ERROR, "")
		return
	}
	response.Success(c, gin.H{"list": auditRows(res.List), "count": res.Total, "page": res.Page, "pages": res.Pages})
}
