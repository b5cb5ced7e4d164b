package model

import "time"

// AdminLog 旧表 admin_logs，只读；整合后保留不删
type AdminLog struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	AdminID   *int64    `gorm:"column:admin_id" json:"admin_id"`
	Action    string    `gorm:"column:action;size:255" json:"action"`
	Details   string    `gorm:"column:details" json:"details"`
	IPAddress string    `gorm:"column:ip_address;size:64" json:"ip_address"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (AdminLog) TableName() string { return "admin_logs" }

// WebsiteUpdate 旧表 website_updates，只读
type WebsiteUpdate struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Category    string    `gorm:"column:category;size:64" json:"category"`
	ActionType  string    `gorm:"column:action_type;size:64" json:"action_type"`
	Title       string    `gorm:"column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (WebsiteUpdate) TableName() string { return "website_updates" }
