package model

import (
	"time"
	"unicode/utf8"
)

// LogType 审计事件类别判别字段
type LogType string

const (
	LogTypeAction LogType = "ACTION" // 管理员执行的操作
	LogTypeChange LogType = "CHANGE" // 数据变更
	LogTypeSystem LogType = "SYSTEM" // 系统/自动事件
)

// LogTypes 全部合法取值，顺序固定（统计输出使用）
var LogTypes = []LogType{LogTypeAction, LogTypeChange, LogTypeSystem}

func (t LogType) Valid() bool {
	switch t {
	case LogTypeAction, LogTypeChange, LogTypeSystem:
		return true
	}
	return false
}

// 旧表来源标识，写入 audit_log.legacy_source
const (
	LegacySourceAdminLogs      = "admin_logs"
	LegacySourceWebsiteUpdates = "website_updates"
)

// TitleDisplayMax 列表展示截断长度；库里保存完整 title
const TitleDisplayMax = 120

// AuditEvent 统一审计日志 audit_log
// 合并旧表 admin_logs (ACTION) 与 website_updates (CHANGE)
type AuditEvent struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	AdminID     *int64    `gorm:"column:admin_id;index" json:"admin_id"`
	LogType     LogType   `gorm:"column:log_type;size:16;not null;default:ACTION;index" json:"log_type"`
	Category    string    `gorm:"column:category;size:64;not null;index" json:"category"`
	ActionType  string    `gorm:"column:action_type;size:64;index" json:"action_type"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	EntityID    *int64    `gorm:"column:entity_id" json:"entity_id"`
	EntityName  string    `gorm:"column:entity_name;size:255" json:"entity_name"`
	IPAddress   string    `gorm:"column:ip_address;size:64" json:"ip_address"`
	Details     string    `gorm:"column:details" json:"details"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;index" json:"created_at"`

	// 迁移幂等用：旧表名 + 旧表主键，非迁移写入为 NULL
	LegacySource *string `gorm:"column:legacy_source;size:32" json:"-"`
	LegacyID     *int64  `gorm:"column:legacy_id" json:"-"`

	Admin *Admin `gorm:"foreignKey:AdminID;constraint:OnDelete:SET NULL" json:"-"`
}

func (AuditEvent) TableName() string { return "audit_log" }

// DisplayTitle 按 rune 截断
func (e AuditEvent) DisplayTitle() string {
	if utf8.RuneCountInString(e.Title) <= TitleDisplayMax {
		return e.Title
	}
	r := []rune(e.Title)
	return string(r[:TitleDisplayMax-1]) + "…"
}
