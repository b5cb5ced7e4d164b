package model

import "time"

// CartItem 登录用户购物车行，(user_id, product_id, variant_key) 唯一
type CartItem struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"column:user_id;not null;uniqueIndex:uq_cart_line,priority:1" json:"user_id"`
	ProductID  int64     `gorm:"column:product_id;not null;uniqueIndex:uq_cart_line,priority:2" json:"product_id"`
	VariantKey string    `gorm:"column:variant_key;size:255;not null;default:'';uniqueIndex:uq_cart_line,priority:3" json:"variant"`
	Quantity   int       `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_items" }

// CartLine 游客/用户购物车统一视图
type CartLine struct {
	ProductID int64  `json:"product_id"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}
