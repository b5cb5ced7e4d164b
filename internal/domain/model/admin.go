package model

import "time"

// Admin 后台管理员（仅数据契约，登录不在本服务）
type Admin struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"column:username;size:64;uniqueIndex" json:"username"`
	DisplayName string    `gorm:"column:display_name;size:128" json:"display_name"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Admin) TableName() string { return "admins" }
