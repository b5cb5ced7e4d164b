package dao

import (
	"context"
	"fmt"
	"time"

	"go-storefront/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartItemDAO 登录用户购物车
type CartItemDAO struct{ DB *gorm.DB }

func NewCartItemDAO(db *gorm.DB) *CartItemDAO { return &CartItemDAO{DB: db} }

var cartLineColumns = []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "variant_key"}}

func (d *CartItemDAO) List(ctx context.Context, userID int64) ([]model.CartLine, error) {
	var items []model.CartItem
	if err := d.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	lines := make([]model.CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, model.CartLine{ProductID: it.ProductID, Variant: it.VariantKey, Quantity: it.Quantity})
	}
	return lines, nil
}

// Add 累加数量，上限 max
func (d *CartItemDAO) Add(ctx context.Context, userID, productID int64, variant string, delta, max int) error {
	if delta > max {
		delta = max
	}
	now := time.Now()
	item := model.CartItem{UserID: userID, ProductID: productID, VariantKey: variant, Quantity: delta, CreatedAt: now, UpdatedAt: now}
	err := d.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: cartLineColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("LEAST(cart_items.quantity + EXCLUDED.quantity, ?)", max),
			"updated_at": now,
		}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("add cart line: %w", err)
	}
	return nil
}

// Set 直接覆盖数量；qty<=0 由上层转为 Remove
func (d *CartItemDAO) Set(ctx context.Context, userID, productID int64, variant string, qty int) error {
	now := time.Now()
	item := model.CartItem{UserID: userID, ProductID: productID, VariantKey: variant, Quantity: qty, CreatedAt: now, UpdatedAt: now}
	err := d.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   cartLineColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{"quantity": qty, "updated_at": now}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("set cart line: %w", err)
	}
	return nil
}

// Decrement 减到 0 即删除该行
func (d *CartItemDAO) Decrement(ctx context.Context, userID, productID int64, variant string, delta int) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line := tx.Model(&model.CartItem{}).Where("user_id = ? AND product_id = ? AND variant_key = ?", userID, productID, variant)
		del := line.Session(&gorm.Session{}).Where("quantity <= ?", delta).Delete(&model.CartItem{})
		if del.Error != nil {
			return fmt.Errorf("decrement cart line: %w", del.Error)
		}
		if del.RowsAffected > 0 {
			return nil
		}
		upd := line.Session(&gorm.Session{}).Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", delta),
			"updated_at": time.Now(),
		})
		if upd.Error != nil {
			return fmt.Errorf("decrement cart line: %w", upd.Error)
		}
		return nil
	})
}

func (d *CartItemDAO) Remove(ctx context.Context, userID, productID int64, variant string) error {
	err := d.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND variant_key = ?", userID, productID, variant).
		Delete(&model.CartItem{}).Error
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}
