package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/repository/dao"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProductStore struct {
	mu   sync.Mutex
	rows map[int64]*model.Product
	next int64
}

func newMemProductStore() *memProductStore { return &memProductStore{rows: map[int64]*model.Product{}} }

func (m *memProductStore) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.SKU == p.SKU {
			return dao.ErrDuplicate
		}
	}
	m.next++
	p.ID = m.next
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProductStore) FindByID(_ context.Context, id int64) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, dao.ErrNotFound
}

func (m *memProductStore) FindVisible(ctx context.Context, id int64) (*model.Product, error) {
	p, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Hidden {
		return nil, dao.ErrNotFound
	}
	return p, nil
}

func (m *memProductStore) ListVisible(_ context.Context, category string, offset, limit int) ([]model.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Product
	for _, r := range m.rows {
		if !r.Hidden && (category == "" || r.Category == category) {
			all = append(all, *r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Product{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memProductStore) UpdatePrice(_ context.Context, id int64, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return dao.ErrNotFound
	}
	r.Price = price
	return nil
}

func (m *memProductStore) SetHidden(_ context.Context, id int64, hidden bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return dao.ErrNotFound
	}
	r.Hidden = hidden
	return nil
}

func newCatalog(t *testing.T) (*CatalogService, *memProductStore, *AuditService, *memAuditStore) {
	t.Helper()
	audit, auditStore := newAuditService(t)
	products := newMemProductStore()
	return NewCatalogService(products, audit, nil), products, audit, auditStore
}

func TestCatalog_CreateRecordsChange(t *testing.T) {
	ctx := context.Background()
	cat, _, audit, _ := newCatalog(t)
	actor := Actor{AdminID: adminID(5), IP: "192.168.1.4"}

	p, err := cat.Create(ctx, actor, ProductInput{SKU: "TEE-01", Name: "Tee", Category: "Apparel", Price: decimal.RequireFromString("19.999")})
	require.NoError(t, err)
	assert.Equal(t, "20", p.Price.String())

	events, err := audit.GetAuditLog(ctx, 10, 0, AuditQuery{LogType: model.LogTypeChange, Category: "Product"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, "Create", e.ActionType)
	assert.Equal(t, p.ID, *e.EntityID)
	assert.Equal(t, "Tee", e.EntityName)
	assert.Equal(t, int64(5), *e.AdminID)
	assert.Equal(t, "192.168.1.4", e.IPAddress)

	_, err = cat.Create(ctx, actor, ProductInput{SKU: "TEE-01", Name: "Other", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrDuplicateSKU)
	assert.True(t, IsValidation(err))

	_, err = cat.Create(ctx, actor, ProductInput{SKU: "X", Name: "Y", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestCatalog_UpdatePrice(t *testing.T) {
	ctx := context.Background()
	cat, products, audit, _ := newCatalog(t)
	p, _ := cat.Create(ctx, Actor{}, ProductInput{SKU: "MUG", Name: "Mug", Price: decimal.NewFromInt(8)})

	got, err := cat.UpdatePrice(ctx, Actor{AdminID: adminID(2)}, p.ID, decimal.RequireFromString("9.5"))
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("9.50")))
	stored, _ := products.FindByID(ctx, p.ID)
	assert.True(t, stored.Price.Equal(decimal.RequireFromString("9.5")))

	events, _ := audit.GetAuditLog(ctx, 1, 0, AuditQuery{})
	require.Len(t, events, 1)
	assert.Equal(t, "Update price", events[0].Title)
	assert.Equal(t, "MUG: 8.00 -> 9.50", events[0].Description)

	_, err = cat.UpdatePrice(ctx, Actor{}, 404, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalog_AuditFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	cat, products, _, auditStore := newCatalog(t)
	p, err := cat.Create(ctx, Actor{}, ProductInput{SKU: "CAP", Name: "Cap", Price: decimal.NewFromInt(12)})
	require.NoError(t, err)

	auditStore.fail = errStoreDown
	got, err := cat.SetVisibility(ctx, Actor{}, p.ID, true)
	require.NoError(t, err)
	assert.True(t, got.Hidden)

	stored, _ := products.FindByID(ctx, p.ID)
	assert.True(t, stored.Hidden)
	_, err = cat.GetVisible(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalog_ListVisible(t *testing.T) {
	ctx := context.Background()
	cat, _, _, _ := newCatalog(t)
	for _, sku := range []string{"A", "B", "C"} {
		_, err := cat.Create(ctx, Actor{}, ProductInput{SKU: sku, Name: sku, Category: "Toys", Price: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}
	_, _ = cat.SetVisibility(ctx, Actor{}, 2, true)

	page, err := cat.ListVisible(ctx, "Toys", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Limit)
	require.Len(t, page.List, 2)
	assert.Equal(t, "A", page.List[0].SKU)
	assert.Equal(t, "C", page.List[1].SKU)
}
