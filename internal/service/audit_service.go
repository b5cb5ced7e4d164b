package service

import (
	"context"
	"strings"
	"time"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/logging"
	"go-storefront/internal/metrics"
	"go-storefront/internal/pkg/cache"
	"go-storefront/internal/repository/dao"

	"go.uber.org/zap"
)

// AuditStore 统一审计日志存储（dao.AuditEventDAO 实现）
type AuditStore interface {
	Create(ctx context.Context, e *model.AuditEvent) error
	List(ctx context.Context, f dao.AuditFilter, limit, offset int) ([]model.AuditEvent, error)
	Count(ctx context.Context, f dao.AuditFilter) (int64, error)
	CountByType(ctx context.Context) (map[model.LogType]int64, error)
	Categories(ctx context.Context) ([]string, error)
}

// AuditEntry 写入参数，全部显式传入
type AuditEntry struct {
	AdminID     *int64
	LogType     model.LogType
	Category    string
	ActionType  string
	Title       string
	Description string
	EntityID    *int64
	EntityName  string
	IPAddress   string
	Details     string
}

// AuditQuery 过滤条件；DateFrom/DateTo 按日历日闭区间，零值表示不限
type AuditQuery struct {
	LogType       model.LogType
	AdminID       *int64
	Category      string
	ActionType    string
	TitleContains string
	DateFrom      time.Time
	DateTo        time.Time
}

type AuditStatistics struct {
	Total  int64                   `json:"total"`
	Today  int64                   `json:"today"`
	ByType map[model.LogType]int64 `json:"by_type"`
}

type AuditPage struct {
	List     []model.AuditEvent `json:"list"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Pages    int                `json:"pages"`
}

type AuditOptions struct {
	PageSize int
	MaxLimit int
	StatsTTL time.Duration
}

const statsCacheKey = "audit:stats:v1"

type AuditService struct {
	Store  AuditStore
	Cache  cache.Cache
	Logger *logging.Logger
	opts   AuditOptions
	now    func() time.Time
}

func NewAuditService(store AuditStore, c cache.Cache, lg *logging.Logger, opts AuditOptions) *AuditService {
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 1000
	}
	if opts.PageSize <= 0 || opts.PageSize > opts.MaxLimit {
		opts.PageSize = 50
	}
	if lg == nil {
		lg = logging.NewNop()
	}
	return &AuditService{Store: store, Cache: c, Logger: lg, opts: opts, now: time.Now}
}

func (s *AuditService) PageSize() int { return s.opts.PageSize }

// LogAuditEvent 校验后追加一条事件；created_at 由存储层在写入时赋值
// 定长列按列宽截断，title 保存完整值
func (s *AuditService) LogAuditEvent(ctx context.Context, in AuditEntry) (*model.AuditEvent, error) {
	if !in.LogType.Valid() {
		metrics.AuditWrites.WithLabelValues("invalid", "rejected").Inc()
		return nil, invalid("log_type", ErrInvalidLogType)
	}
	if strings.TrimSpace(in.Category) == "" {
		metrics.AuditWrites.WithLabelValues(string(in.LogType), "rejected").Inc()
		return nil, invalid("category", ErrEmptyCategory)
	}
	if strings.TrimSpace(in.Title) == "" {
		metrics.AuditWrites.WithLabelValues(string(in.LogType), "rejected").Inc()
		return nil, invalid("title", ErrEmptyTitle)
	}
	e := &model.AuditEvent{
		AdminID:     in.AdminID,
		LogType:     in.LogType,
		Category:    clip(in.Category, shortFieldMax),
		ActionType:  clip(in.ActionType, shortFieldMax),
		Title:       in.Title,
		Description: in.Description,
		EntityID:    in.EntityID,
		EntityName:  clip(in.EntityName, entityNameMax),
		IPAddress:   clip(in.IPAddress, shortFieldMax),
		Details:     in.Details,
	}
	if err := s.Store.Create(ctx, e); err != nil {
		metrics.AuditWrites.WithLabelValues(string(in.LogType), "error").Inc()
		logging.FromContext(ctx, s.Logger).Error("audit_write_failed",
			zap.String("log_type", string(in.LogType)), zap.String("category", in.Category), zap.Error(err))
		return nil, persistence("log audit event", err)
	}
	metrics.AuditWrites.WithLabelValues(string(in.LogType), "ok").Inc()
	s.invalidateStats(ctx)
	return e, nil
}

// LogAdminAction 旧调用点兼容：落为 ACTION / Admin
func (s *AuditService) LogAdminAction(ctx context.Context, adminID *int64, action, details, ip string) error {
	_, err := s.LogAuditEvent(ctx, AuditEntry{
		AdminID:     adminID,
		LogType:     model.LogTypeAction,
		Category:    CategoryAdmin,
		ActionType:  ParseActionType(action),
		Title:       action,
		Description: details,
		Details:     details,
		IPAddress:   ip,
	})
	return err
}

// LogWebsiteUpdate 旧调用点兼容：落为 CHANGE
func (s *AuditService) LogWebsiteUpdate(ctx context.Context, category, actionType, title, description string) error {
	_, err := s.LogAuditEvent(ctx, AuditEntry{
		LogType:     model.LogTypeChange,
		Category:    category,
		ActionType:  actionType,
		Title:       title,
		Description: description,
	})
	return err
}

func (s *AuditService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.PageSize
	}
	if limit > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return limit
}

// GetAuditLog 按 created_at DESC, id DESC 分页；无匹配返回空切片
func (s *AuditService) GetAuditLog(ctx context.Context, limit, offset int, q AuditQuery) ([]model.AuditEvent, error) {
	if offset < 0 {
		offset = 0
	}
	list, err := s.Store.List(ctx, q.filter(), s.clampLimit(limit), offset)
	if err != nil {
		return nil, persistence("get audit log", err)
	}
	if list == nil {
		list = []model.AuditEvent{}
	}
	return list, nil
}

func (s *AuditService) GetAuditLogCount(ctx context.Context, q AuditQuery) (int64, error) {
	n, err := s.Store.Count(ctx, q.filter())
	if err != nil {
		return 0, persistence("count audit log", err)
	}
	return n, nil
}

// Page 页码从 1 开始，小于 1 视为 1
func (s *AuditService) Page(ctx context.Context, q AuditQuery, page int) (AuditPage, error) {
	if page < 1 {
		page = 1
	}
	size := s.opts.PageSize
	total, err := s.GetAuditLogCount(ctx, q)
	if err != nil {
		return AuditPage{}, err
	}
	list, err := s.GetAuditLog(ctx, size, (page-1)*size, q)
	if err != nil {
		return AuditPage{}, err
	}
	return AuditPage{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// GetAuditStatistics total 取各类型之和，保证 byType 汇总等于 total
func (s *AuditService) GetAuditStatistics(ctx context.Context) (AuditStatistics, error) {
	var st AuditStatistics
	if cache.GetJSON(ctx, s.Cache, statsCacheKey, &st) {
		metrics.AuditStatsCache.WithLabelValues("hit").Inc()
		return st, nil
	}
	metrics.AuditStatsCache.WithLabelValues("miss").Inc()

	byType, err := s.Store.CountByType(ctx)
	if err != nil {
		return AuditStatistics{}, persistence("audit statistics", err)
	}
	start := startOfDay(s.now())
	today, err := s.Store.Count(ctx, dao.AuditFilter{From: start, To: start.AddDate(0, 0, 1)})
	if err != nil {
		return AuditStatistics{}, persistence("audit statistics", err)
	}
	st = AuditStatistics{Today: today, ByType: byType}
	for _, n := range byType {
		st.Total += n
	}
	if s.opts.StatsTTL > 0 {
		if err := cache.SetJSON(ctx, s.Cache, statsCacheKey, st, s.opts.StatsTTL); err != nil {
			s.Logger.Warn("audit_stats_cache_set_failed", zap.Error(err))
		}
	}
	return st, nil
}

func (s *AuditService) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.Store.Categories(ctx)
	if err != nil {
		return nil, persistence("audit categories", err)
	}
	return cats, nil
}

func (s *AuditService) invalidateStats(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, statsCacheKey); err != nil {
		s.Logger.Warn("audit_stats_cache_del_failed", zap.Error(err))
	}
}

// filter 非法 log type 视为不过滤
func (q AuditQuery) filter() dao.AuditFilter {
	f := dao.AuditFilter{
		AdminID:       q.AdminID,
		Category:      strings.TrimSpace(q.Category),
		ActionType:    strings.TrimSpace(q.ActionType),
		TitleContains: strings.TrimSpace(q.TitleContains),
	}
	if q.LogType.Valid() {
		f.LogType = q.LogType
	}
	if !q.DateFrom.IsZero() {
		f.From = startOfDay(q.DateFrom)
	}
	if !q.DateTo.IsZero() {
		f.To = startOfDay(q.DateTo).AddDate(0, 0, 1)
	}
	return f
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
