package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	SKU       string          `gorm:"column:sku;size:64;uniqueIndex" json:"sku"`
	Name      string          `gorm:"column:name;size:255;not null" json:"name"`
	Category  string          `gorm:"column:category;size:64;index" json:"category"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Hidden    bool            `gorm:"column:hidden;not null;default:false" json:"hidden"`
	CreatedAt time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Product) TableName() string { return "products" }
