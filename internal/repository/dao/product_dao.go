package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductDAO struct{ DB *gorm.DB }

func NewProductDAO(db *gorm.DB) *ProductDAO { return &ProductDAO{DB: db} }

func (d *ProductDAO) Create(ctx context.Context, p *model.Product) error {
	if err := d.DB.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// FindByID 包含隐藏商品（后台使用）
func (d *ProductDAO) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	if err := d.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

func (d *ProductDAO) FindVisible(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	if err := d.DB.WithContext(ctx).Where("hidden = ?", false).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

func (d *ProductDAO) ListVisible(ctx context.Context, category string, offset, limit int) ([]model.Product, int64, error) {
	q := d.DB.WithContext(ctx).Model(&model.Product{}).Where("hidden = ?", false)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	var list []model.Product
	if err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return list, total, nil
}

func (d *ProductDAO) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) error {
	return d.update(ctx, id, map[string]interface{}{"price": price, "updated_at": time.Now()})
}

func (d *ProductDAO) SetHidden(ctx context.Context, id int64, hidden bool) error {
	return d.update(ctx, id, map[string]interface{}{"hidden": hidden, "updated_at": time.Now()})
}

func (d *ProductDAO) update(ctx context.Context, id int64, fields map[string]interface{}) error {
	res := d.DB.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
