package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/logging"
	"go-storefront/internal/repository/dao"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	FindVisible(ctx context.Context, id int64) (*model.Product, error)
	ListVisible(ctx context.Context, category string, offset, limit int) ([]model.Product, int64, error)
	UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) error
	SetHidden(ctx context.Context, id int64, hidden bool) error
}

// AuditRecorder 业务侧写审计的入口（AuditService 实现）
type AuditRecorder interface {
	LogAuditEvent(ctx context.Context, in AuditEntry) (*model.AuditEvent, error)
}

// Actor 后台操作者
type Actor struct {
	AdminID *int64
	IP      string
}

type ProductInput struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

type ProductPage struct {
	List  []model.Product `json:"list"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type CatalogService struct {
	Products ProductStore
	Audit    AuditRecorder
	Logger   *logging.Logger
}

func NewCatalogService(p ProductStore, audit AuditRecorder, lg *logging.Logger) *CatalogService {
	if lg == nil {
		lg = logging.NewNop()
	}
	return &CatalogService{Products: p, Audit: audit, Logger: lg}
}

func (s *CatalogService) ListVisible(ctx context.Context, category string, page, limit int) (ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, total, err := s.Products.ListVisible(ctx, strings.TrimSpace(category), (page-1)*limit, limit)
	if err != nil {
		return ProductPage{}, persistence("list products", err)
	}
	return ProductPage{List: list, Total: total, Page: page, Limit: limit}, nil
}

func (s *CatalogService) GetVisible(ctx context.Context, id int64) (*model.Product, error) {
	p, err := s.Products.FindVisible(ctx, id)
	if err != nil {
		return nil, s.lookupErr("get product", err)
	}
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, actor Actor, in ProductInput) (*model.Product, error) {
	in.SKU, in.Name, in.Category = strings.TrimSpace(in.SKU), strings.TrimSpace(in.Name), strings.TrimSpace(in.Category)
	switch {
	case in.SKU == "":
		return nil, &ValidationError{Field: "sku", Reason: "required"}
	case in.Name == "":
		return nil, &ValidationError{Field: "name", Reason: "required"}
	case in.Price.IsNegative():
		return nil, invalid("price", ErrInvalidPrice)
	}
	p := &model.Product{SKU: in.SKU, Name: in.Name, Category: in.Category, Price: in.Price.Round(2)}
	if err := s.Products.Create(ctx, p); err != nil {
		if errors.Is(err, dao.ErrDuplicate) {
			return nil, invalid("sku", ErrDuplicateSKU)
		}
		return nil, persistence("create product", err)
	}
	s.record(ctx, actor, p, "Create", "Create product "+p.Name, "")
	return p, nil
}

func (s *CatalogService) UpdatePrice(ctx context.Context, actor Actor, id int64, price decimal.Decimal) (*model.Product, error) {
	if price.IsNegative() {
		return nil, invalid("price", ErrInvalidPrice)
	}
	p, err := s.Products.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr("update price", err)
	}
	old := p.Price
	price = price.Round(2)
	if err := s.Products.UpdatePrice(ctx, id, price); err != nil {
		return nil, s.lookupErr("update price", err)
	}
	p.Price = price
	s.record(ctx, actor, p, "Update", "Update price", fmt.Sprintf("%s: %s -> %s", p.SKU, old.StringFixed(2), price.StringFixed(2)))
	return p, nil
}

func (s *CatalogService) SetVisibility(ctx context.Context, actor Actor, id int64, hidden bool) (*model.Product, error) {
	p, err := s.Products.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr("change visibility", err)
	}
	if err := s.Products.SetHidden(ctx, id, hidden); err != nil {
		return nil, s.lookupErr("change visibility", err)
	}
	p.Hidden = hidden
	title := "Show product"
	if hidden {
		title = "Hide product"
	}
	s.record(ctx, actor, p, "Update", title, p.SKU)
	return p, nil
}

// record 审计失败只记日志，不影响已完成的变更
func (s *CatalogService) record(ctx context.Context, actor Actor, p *model.Product, action, title, desc string) {
	if s.Audit == nil {
		return
	}
	id := p.ID
	_, err := s.Audit.LogAuditEvent(ctx, AuditEntry{
		AdminID:     actor.AdminID,
		LogType:     model.LogTypeChange,
		Category:    CategoryProduct,
		ActionType:  action,
		Title:       title,
		Description: desc,
		EntityID:    &id,
		EntityName:  p.Name,
		IPAddress:   actor.IP,
	})
	if err != nil {
		logging.FromContext(ctx, s.Logger).Warn("product_audit_failed",
			zap.Int64("product_id", p.ID), zap.String("action", action), zap.Error(err))
	}
}

func (s *CatalogService) lookupErr(op string, err error) error {
	if errors.Is(err, dao.ErrNotFound) {
		return ErrProductNotFound
	}
	return persistence(op, err)
}
