package admin

import (
	"net/http"
	"strings"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/logging"
	"go-storefront/internal/service"
	"go-storefront/internal/util/retcode"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuditLogHandler 统一审计视图
type AuditLogHandler struct{ d Dependencies }

func NewAuditLogHandler(d Dependencies) *AuditLogHandler { return &AuditLogHandler{d: d} }

// Index GET /admin/AuditLog/index?type=&category=&admin=&from=&to=&page=
func (h *AuditLogHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	p := service.AuditQueryParams{
		Type:     c.Query("type"),
		Category: c.Query("category"),
		Admin:    c.Query("admin"),
		From:     c.Query("from"),
		To:       c.Query("to"),
	}
	if h.d.Screen != nil {
		p.Category = h.d.Screen.Filter(ctx, "category", p.Category, adminID(c), c.ClientIP())
	}
	q := service.ParseAuditQuery(p)
	page, err := h.d.Audit.Page(ctx, q, service.ParsePage(c.Query("page")))
	if err != nil {
		logging.FromContext(ctx, h.d.Logger).Error("audit_view_read_failed", zap.Error(err))
		response.Error(c, retcode.DB_READ_ERROR, "")
		return
	}
	response.Success(c, gin.H{
		"list":      auditRows(page.List),
		"total":     page.Total,
		"page":      page.Page,
		"page_size": page.PageSize,
		"pages":     page.Pages,
		"filters":   echoFilters(q),
		"types":     model.LogTypes,
	})
}

// Statistics GET /admin/AuditLog/statistics
func (h *AuditLogHandler) Statistics(c *gin.Context) {
	st, err := h.d.Audit.GetAuditStatistics(c.Request.Context())
	if err != nil {
		response.Error(c, retcode.DB_READ_ERROR, "")
		return
	}
	response.Success(c, st)
}

// Categories GET /admin/AuditLog/categories
func (h *AuditLogHandler) Categories(c *gin.Context) {
	cats, err := h.d.Audit.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, retcode.DB_READ_ERROR, "")
		return
	}
	c.Set("resp", gin.H{"data": gin.H{"list": cats}})
	c.Status(http.StatusOK)
}

type addNoteReq struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	ActionType  string `json:"action_type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Add POST /admin/AuditLog/add 手工记录 SYSTEM / ACTION 备注
func (h *AuditLogHandler) Add(c *gin.Context) {
	var req addNoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, retcode.JSON_PARSE_FAIL, "")
		return
	}
	lt := model.LogTypeSystem
	if req.Type != "" {
		parsed, ok := service.ParseLogType(req.Type)
		if !ok || parsed == model.LogTypeChange {
			response.Error(c, retcode.PARAM_INVALID, "type must be SYSTEM or ACTION")
			return
		}
		lt = parsed
	}
	e, err := h.d.Audit.LogAuditEvent(c.Request.Context(), service.AuditEntry{
		AdminID:     adminID(c),
		LogType:     lt,
		Category:    strings.TrimSpace(req.Category),
		ActionType:  strings.TrimSpace(req.ActionType),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"id": e.ID})
}

func echoFilters(q service.AuditQuery) gin.H {
	out := gin.H{}
	if q.LogType != "" {
		out["type"] = q.LogType
	}
	if q.Category != "" {
		out["category"] = q.Category
	}
	if q.AdminID != nil {
		out["admin"] = *q.AdminID
	}
	if !q.DateFrom.IsZero() {
		out["from"] = q.DateFrom.Format("2006-01-02")
	}
	if !q.DateTo.IsZero() {
		out["to"] = q.DateTo.Format("2006-01-02")
	}
	return out
}
