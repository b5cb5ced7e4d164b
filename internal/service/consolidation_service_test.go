package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/repository/dao"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLegacy struct {
	adminLogs []model.AdminLog
	updates   []model.WebsiteUpdate
}

func (f *fakeLegacy) CountAdminLogs(context.Context) (int64, error) {
	return int64(len(f.adminLogs)), nil
}

func (f *fakeLegacy) CountWebsiteUpdates(context.Context) (int64, error) {
	return int64(len(f.updates)), nil
}

func (f *fakeLegacy) EachAdminLog(_ context.Context, batch int, fn func([]model.AdminLog) error) error {
	for i := 0; i < len(f.adminLogs); i += batch {
		end := i + batch
		if end > len(f.adminLogs) {
			end = len(f.adminLogs)
		}
		if err := fn(f.adminLogs[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeLegacy) EachWebsiteUpdate(_ context.Context, batch int, fn func([]model.WebsiteUpdate) error) error {
	for i := 0; i < len(f.updates); i += batch {
		end := i + batch
		if end > len(f.updates) {
			end = len(f.updates)
		}
		if err := fn(f.updates[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// memConsolidationStore 复用内存审计表，附加 legacy 唯一约束
type memConsolidationStore struct {
	*memAuditStore
	admins   map[int64]struct{}
	failIDs  map[int64]bool // 指定 legacy id 插入失败
	seedDupe map[string]bool
}

func newMemConsolidationStore(admins ...int64) *memConsolidationStore {
	s := &memConsolidationStore{
		memAuditStore: newMemAuditStore(),
		admins:        map[int64]struct{}{},
		failIDs:       map[int64]bool{},
		seedDupe:      map[string]bool{},
	}
	for _, id := range admins {
		s.admins[id] = struct{}{}
	}
	return s
}

func legacyKey(src string, id int64) string { return fmt.Sprintf("%s/%d", src, id) }

func (s *memConsolidationStore) CreateMigrated(_ context.Context, e *model.AuditEvent) error {
	if s.failIDs[*e.LegacyID] {
		return errors.New("violates check constraint")
	}
	k := legacyKey(*e.LegacySource, *e.LegacyID)
	if s.seedDupe[k] {
		return dao.ErrDuplicate
	}
	s.mu.Lock()
	for _, r := range s.rows {
		if r.LegacySource != nil && legacyKey(*r.LegacySource, *r.LegacyID) == k {
			s.mu.Unlock()
			return dao.ErrDuplicate
		}
	}
	s.mu.Unlock()
	s.insertMigrated(*e)
	return nil
}

func (s *memConsolidationStore) MigratedLegacyIDs(_ context.Context, source string) (map[int64]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64]struct{}{}
	for _, r := range s.rows {
		if r.LegacySource != nil && *r.LegacySource == source {
			out[*r.LegacyID] = struct{}{}
		}
	}
	return out, nil
}

func (s *memConsolidationStore) ExistingAdminIDs(_ context.Context, ids []int64) (map[int64]struct{}, error) {
	out := map[int64]struct{}{}
	for _, id := range ids {
		if _, ok := s.admins[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func legacyFixture() *fakeLegacy {
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return &fakeLegacy{
		adminLogs: []model.AdminLog{
			{ID: 1, AdminID: adminID(1), Action: "Login: success", Details: "chrome", IPAddress: "10.0.0.2", CreatedAt: t0},
			{ID: 2, AdminID: adminID(99), Action: "Delete product", CreatedAt: t0.Add(time.Hour)},
			{ID: 3, Action: "Logout", CreatedAt: t0.Add(2 * time.Hour)},
		},
		updates: []model.WebsiteUpdate{
			{ID: 1, Category: "Product", ActionType: "Update", Title: "Price change", Description: "sku-1", CreatedAt: t0},
			{ID: 2, Category: "Design", ActionType: "Create", Title: "New banner", CreatedAt: t0.Add(time.Minute)},
		},
	}
}

func TestConsolidation_MigratesBothSources(t *testing.T) {
	ctx := context.Background()
	store := newMemConsolidationStore(1)
	svc := NewConsolidationService(legacyFixture(), store, nil, nil)
	svc.BatchSize = 2

	rep, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Len(t, rep.Sources, 2)
	assert.Equal(t, SourceReport{Source: "admin_logs", LegacyRows: 3, Migrated: 3}, rep.Sources[0])
	assert.Equal(t, SourceReport{Source: "website_updates", LegacyRows: 2, Migrated: 2}, rep.Sources[1])
	assert.Equal(t, int64(5), rep.Total)
	assert.Equal(t, int64(3), rep.TotalsByType[model.LogTypeAction])
	assert.Equal(t, int64(2), rep.TotalsByType[model.LogTypeChange])

	byLegacy := map[string]model.AuditEvent{}
	for _, r := range store.rows {
		byLegacy[legacyKey(*r.LegacySource, *r.LegacyID)] = r
	}
	login := byLegacy["admin_logs/1"]
	assert.Equal(t, model.LogTypeAction, login.LogType)
	assert.Equal(t, "Admin", login.Category)
	assert.Equal(t, "Login", login.ActionType)
	assert.Equal(t, "Login: success", login.Title)
	assert.Equal(t, "chrome", login.Description)
	assert.Equal(t, "chrome", login.Details)
	assert.Equal(t, "10.0.0.2", login.IPAddress)
	assert.Equal(t, int64(1), *login.AdminID)
	assert.True(t, login.CreatedAt.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))

	// 已删除的管理员置空
	assert.Nil(t, byLegacy["admin_logs/2"].AdminID)
	assert.Equal(t, "Delete product", byLegacy["admin_logs/2"].ActionType)

	price := byLegacy["website_updates/1"]
	assert.Equal(t, model.LogTypeChange, price.LogType)
	assert.Equal(t, "Product", price.Category)
	assert.Equal(t, "Update", price.ActionType)
	assert.Equal(t, "sku-1", price.Description)
}

func TestConsolidation_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemConsolidationStore(1)
	svc := NewConsolidationService(legacyFixture(), store, nil, nil)

	first, err := svc.Run(ctx)
	require.NoError(t, err)
	second, err := svc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.TotalsByType, second.TotalsByType)
	for _, s := range second.Sources {
		assert.Zero(t, s.Migrated, s.Source)
		assert.Equal(t, int(s.LegacyRows), s.AlreadyMigrated, s.Source)
	}
}

func TestConsolidation_ContentDuplicatesAreDistinctRows(t *testing.T) {
	ctx := context.Background()
	legacy := &fakeLegacy{adminLogs: []model.AdminLog{
		{ID: 10, Action: "Login", CreatedAt: time.Now()},
		{ID: 11, Action: "Login", CreatedAt: time.Now()},
	}}
	store := newMemConsolidationStore()
	rep, err := NewConsolidationService(legacy, store, nil, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Sources[0].Migrated)
}

func TestConsolidation_RowFailureContinues(t *testing.T) {
	ctx := context.Background()
	store := newMemConsolidationStore(1)
	store.failIDs[2] = true
	svc := NewConsolidationService(legacyFixture(), store, nil, nil)

	rep, err := svc.Run(ctx)
	require.NoError(t, err)
	// admin_logs/2 与 website_updates/2 共用 legacy id 2，均失败
	assert.Equal(t, 2, rep.Failed())
	assert.Equal(t, 1, rep.Sources[0].Failed)
	assert.Equal(t, 2, rep.Sources[0].Migrated)
	assert.Equal(t, 1, rep.Sources[1].Failed)

	store.failIDs = map[int64]bool{}
	rep, err = svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Sources[0].Migrated)
	assert.Equal(t, 2, rep.Sources[0].AlreadyMigrated)
}

func TestConsolidation_DuplicateFromConcurrentRunCountsAsMigrated(t *testing.T) {
	ctx := context.Background()
	store := newMemConsolidationStore(1)
	store.seedDupe[legacyKey("website_updates", 1)] = true

	rep, err := NewConsolidationService(legacyFixture(), store, nil, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Sources[1].AlreadyMigrated)
	assert.Equal(t, 1, rep.Sources[1].Migrated)
	assert.Zero(t, rep.Failed())
}

func TestConsolidation_SchemaFailureIsFatal(t *testing.T) {
	store := newMemConsolidationStore()
	svc := NewConsolidationService(legacyFixture(), store, func(context.Context) error {
		return errors.New("permission denied for schema public")
	}, nil)

	rep, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, rep)
	assert.Equal(t, 0, store.len())
}

func TestConsolidation_EmptyLegacyFieldsGetPlaceholders(t *testing.T) {
	legacy := &fakeLegacy{updates: []model.WebsiteUpdate{{ID: 7}}}
	store := newMemConsolidationStore()
	svc := NewConsolidationService(legacy, store, nil, nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, store.len())
	r := store.rows[0]
	assert.Equal(t, "General", r.Category)
	assert.Equal(t, "website_updates #7", r.Title)
	assert.Equal(t, fixed, r.CreatedAt)
}
