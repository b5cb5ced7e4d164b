package dao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-storefront/internal/domain/model"

	"gorm.io/gorm"
)

// likeEscaper 用户输入按字面匹配，不作为通配符
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// AuditFilter 查询条件，零值字段表示不过滤
type AuditFilter struct {
	LogType       model.LogType
	AdminID       *int64
	Category      string
	ActionType    string
	TitleContains string
	// [From, To) 半开区间，按日历日的闭区间由调用方换算
	From time.Time
	To   time.Time
}

func (f AuditFilter) apply(q *gorm.DB) *gorm.DB {
	if f.LogType != "" {
		q = q.Where("log_type = ?", string(f.LogType))
	}
	if f.AdminID != nil {
		q = q.Where("admin_id = ?", *f.AdminID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.ActionType != "" {
		q = q.Where("action_type = ?", f.ActionType)
	}
	if f.TitleContains != "" {
		q = q.Where(`title ILIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(f.TitleContains)+"%")
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	return q
}

type AuditEventDAO struct{ DB *gorm.DB }

func NewAuditEventDAO(db *gorm.DB) *AuditEventDAO { return &AuditEventDAO{DB: db} }

// Create 追加一行，created_at 由此处赋值（不接受调用方时间）
func (d *AuditEventDAO) Create(ctx context.Context, e *model.AuditEvent) error {
	e.ID = 0
	e.CreatedAt = time.Now()
	e.LegacySource, e.LegacyID = nil, nil
	if err := d.DB.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// CreateMigrated 旧表回填：保留原 created_at，legacy 身份冲突返回 ErrDuplicate
func (d *AuditEventDAO) CreateMigrated(ctx context.Context, e *model.AuditEvent) error {
	if e.LegacySource == nil || e.LegacyID == nil {
		return fmt.Errorf("insert migrated audit event: missing legacy identity")
	}
	e.ID = 0
	if err := d.DB.WithContext(ctx).Create(e).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert migrated audit event: %w", err)
	}
	return nil
}

func (d *AuditEventDAO) listQuery(ctx context.Context, f AuditFilter, limit, offset int) *gorm.DB {
	q := f.apply(d.DB.WithContext(ctx).Model(&model.AuditEvent{}))
	return q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset)
}

func (d *AuditEventDAO) List(ctx context.Context, f AuditFilter, limit, offset int) ([]model.AuditEvent, error) {
	list := make([]model.AuditEvent, 0, limit)
	if err := d.listQuery(ctx, f, limit, offset).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	return list, nil
}

func (d *AuditEventDAO) Count(ctx context.Context, f AuditFilter) (int64, error) {
	var total int64
	if err := f.apply(d.DB.WithContext(ctx).Model(&model.AuditEvent{})).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count audit log: %w", err)
	}
	return total, nil
}

// CountByType 只包含表中出现过的类型
func (d *AuditEventDAO) CountByType(ctx context.Context) (map[model.LogType]int64, error) {
	var rows []struct {
		LogType model.LogType
		Total   int64
	}
	err := d.DB.WithContext(ctx).Model(&model.AuditEvent{}).
		Select("log_type, COUNT(*) AS total").
		Group("log_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count audit log by type: %w", err)
	}
	out := make(map[model.LogType]int64, len(rows))
	for _, r := range rows {
		out[r.LogType] = r.Total
	}
	return out, nil
}

func (d *AuditEventDAO) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := d.DB.WithContext(ctx).Model(&model.AuditEvent{}).
		Distinct().
		Order("category").
		Pluck("category", &cats).Error
	if err != nil {
		return nil, fmt.Errorf("list audit categories: %w", err)
	}
	return cats, nil
}

// MigratedLegacyIDs 已回填的旧表主键集合
func (d *AuditEventDAO) MigratedLegacyIDs(ctx context.Context, source string) (map[int64]struct{}, error) {
	var ids []int64
	err := d.DB.WithContext(ctx).Model(&model.AuditEvent{}).
		Where("legacy_source = ? AND legacy_id IS NOT NULL", source).
		Pluck("legacy_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load migrated ids for %s: %w", source, err)
	}
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// ExistingAdminIDs 过滤掉已删除的管理员，回填时悬空引用置 NULL
func (d *AuditEventDAO) ExistingAdminIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	out := make(map[int64]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []int64
	if err := d.DB.WithContext(ctx).Model(&model.Admin{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("load admin ids: %w", err)
	}
	for _, id := range found {
		out[id] = struct{}{}
	}
	return out, nil
}
