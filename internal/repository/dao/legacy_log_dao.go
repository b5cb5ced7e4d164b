package dao

import (
	"context"
	"fmt"

	"go-storefront/internal/domain/model"

	"gorm.io/gorm"
)

// LegacyLogDAO 只读访问旧表 admin_logs / website_updates
// 旧表字段允许 NULL，统一 COALESCE 成空串
type LegacyLogDAO struct{ DB *gorm.DB }

func NewLegacyLogDAO(db *gorm.DB) *LegacyLogDAO { return &LegacyLogDAO{DB: db} }

const (
	adminLogColumns      = "id, admin_id, COALESCE(action, '') AS action, COALESCE(details, '') AS details, COALESCE(ip_address, '') AS ip_address, created_at"
	websiteUpdateColumns = "id, COALESCE(category, '') AS category, COALESCE(action_type, '') AS action_type, COALESCE(title, '') AS title, COALESCE(description, '') AS description, created_at"
)

func (d *LegacyLogDAO) CountAdminLogs(ctx context.Context) (int64, error) {
	var n int64
	if err := d.DB.WithContext(ctx).Model(&model.AdminLog{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count admin_logs: %w", err)
	}
	return n, nil
}

func (d *LegacyLogDAO) CountWebsiteUpdates(ctx context.Context) (int64, error) {
	var n int64
	if err := d.DB.WithContext(ctx).Model(&model.WebsiteUpdate{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count website_updates: %w", err)
	}
	return n, nil
}

// EachAdminLog 按主键分批遍历
func (d *LegacyLogDAO) EachAdminLog(ctx context.Context, batch int, fn func([]model.AdminLog) error) error {
	var rows []model.AdminLog
	res := d.DB.WithContext(ctx).Model(&model.AdminLog{}).Select(adminLogColumns).
		FindInBatches(&rows, batch, func(_ *gorm.DB, _ int) error { return fn(rows) })
	if res.Error != nil {
		return fmt.Errorf("scan admin_logs: %w", res.Error)
	}
	return nil
}

func (d *LegacyLogDAO) EachWebsiteUpdate(ctx context.Context, batch int, fn func([]model.WebsiteUpdate) error) error {
	var rows []model.WebsiteUpdate
	res := d.DB.WithContext(ctx).Model(&model.WebsiteUpdate{}).Select(websiteUpdateColumns).
		FindInBatches(&rows, batch, func(_ *gorm.DB, _ int) error { return fn(rows) })
	if res.Error != nil {
		return fmt.Errorf("scan website_updates: %w", res.Error)
	}
	return nil
}
