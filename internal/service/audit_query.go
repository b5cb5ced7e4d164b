package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go-storefront/internal/domain/model"
)

const (
	CategoryAdmin    = "Admin"
	CategoryProduct  = "Product"
	CategorySecurity = "Security"

	// 与 audit_log.action_type / category 列宽一致
	shortFieldMax = 64
	entityNameMax = 255
)

const dateLayout = "2006-01-02"

// ParseActionType 取第一个冒号前的部分；无冒号时返回整串
func ParseActionType(action string) string {
	action = strings.TrimSpace(action)
	if i := strings.IndexByte(action, ':'); i >= 0 {
		return strings.TrimSpace(action[:i])
	}
	return action
}

// ParseLogType 大小写不敏感；非法值返回 false
func ParseLogType(s string) (model.LogType, bool) {
	lt := model.LogType(strings.ToUpper(strings.TrimSpace(s)))
	if !lt.Valid() {
		return "", false
	}
	return lt, true
}

func ParseAdminID(s string) (*int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}

// ParseDate YYYY-MM-DD，按服务器本地时区
func ParseDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func ParsePage(s string) int {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// AuditQueryParams 统一视图的原始查询参数
type AuditQueryParams struct {
	Type     string
	Category string
	Admin    string
	From     string
	To       string
}

// ParseAuditQuery 非法值按未设置处理，不返回错误
func ParseAuditQuery(p AuditQueryParams) AuditQuery {
	var q AuditQuery
	if lt, ok := ParseLogType(p.Type); ok {
		q.LogType = lt
	}
	if id, ok := ParseAdminID(p.Admin); ok {
		q.AdminID = id
	}
	q.Category = strings.TrimSpace(p.Category)
	if t, ok := ParseDate(p.From); ok {
		q.DateFrom = t
	}
	if t, ok := ParseDate(p.To); ok {
		q.DateTo = t
	}
	return q
}

// LegacyActivityParams 旧 admin 活动页参数 admin_filter / action / date
type LegacyActivityParams struct {
	AdminFilter string
	Action      string
	Date        string
}

// ParseLegacyActivityQuery 映射到统一存储：仅 ACTION，action 按标题模糊匹配，date 为单日
func ParseLegacyActivityQuery(p LegacyActivityParams) AuditQuery {
	q := AuditQuery{LogType: model.LogTypeAction, TitleContains: strings.TrimSpace(p.Action)}
	if id, ok := ParseAdminID(p.AdminFilter); ok {
		q.AdminID = id
	}
	if t, ok := ParseDate(p.Date); ok {
		q.DateFrom, q.DateTo = t, t
	}
	return q
}

// LegacyAdminActivity 旧活动页，读取统一存储
func (s *AuditService) LegacyAdminActivity(ctx context.Context, p LegacyActivityParams, page int) (AuditPage, error) {
	return s.Page(ctx, ParseLegacyActivityQuery(p), page)
}

func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
