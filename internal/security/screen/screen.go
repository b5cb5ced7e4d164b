package screen

import (
	"context"
	"fmt"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/logging"
	"go-storefront/internal/metrics"
	"go-storefront/internal/service"

	libinjection "github.com/corazawaf/libinjection-go"
	"go.uber.org/zap"
)

// Hit 一次命中
type Hit struct {
	Param       string
	Value       string
	Fingerprint string
}

// Detect 仅做检测，不产生副作用
func Detect(param, value string) *Hit {
	if value == "" {
		return nil
	}
	if ok, fp := libinjection.IsSQLi(value); ok {
		return &Hit{Param: param, Value: value, Fingerprint: string(fp)}
	}
	return nil
}

// Screener 审计视图自由文本过滤项的 SQL 注入筛查
// 命中时丢弃该过滤项，写 security_audit 日志并记一条 SYSTEM 事件
type Screener struct {
	Audit  service.AuditRecorder
	Logger *logging.Logger
}

func New(audit service.AuditRecorder, lg *logging.Logger) *Screener {
	if lg == nil {
		lg = logging.NewNop()
	}
	return &Screener{Audit: audit, Logger: lg.Named("security_audit")}
}

// Filter 返回可安全使用的值；命中返回空串
func (s *Screener) Filter(ctx context.Context, param, value string, adminID *int64, ip string) string {
	hit := Detect(param, value)
	if hit == nil {
		return value
	}
	metrics.FilterScreenHits.WithLabelValues(param).Inc()
	s.Logger.WithContext(ctx).Warn("sql_injection_filter_dropped",
		zap.String("param", param), zap.String("fingerprint", hit.Fingerprint), zap.String("ip", ip))
	if s.Audit != nil {
		_, err := s.Audit.LogAuditEvent(ctx, service.AuditEntry{
			AdminID:     adminID,
			LogType:     model.LogTypeSystem,
			Category:    service.CategorySecurity,
			ActionType:  "SQLInjection",
			Title:       "Rejected filter " + param,
			Description: fmt.Sprintf("fingerprint=%s", hit.Fingerprint),
			IPAddress:   ip,
			Details:     truncate(value, 512),
		})
		if err != nil {
			s.Logger.WithContext(ctx).Error("security_event_write_failed", zap.Error(err))
		}
	}
	return ""
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
