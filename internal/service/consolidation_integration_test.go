//go:build integration

package service

import (
	"context"
	"testing"
	"time"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/repository/dao"
	"go-storefront/internal/repository/postgres"
	"go-storefront/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConsolidation_Postgres(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.Truncate(t, "audit_log", "admin_logs", "website_updates", "admins")
	ctx := context.Background()

	admin := model.Admin{Username: "bob", CreatedAt: time.Now()}
	require.NoError(t, tdb.DB.Create(&admin).Error)
	gone := admin.ID + 999
	at := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, tdb.DB.Create(&[]model.AdminLog{
		{AdminID: &admin.ID, Action: "Login: from office", IPAddress: "10.0.0.1", CreatedAt: at},
		{AdminID: &gone, Action: "Delete: product 3", CreatedAt: at},
	}).Error)
	require.NoError(t, tdb.DB.Create(&[]model.WebsiteUpdate{
		{Category: "Product", ActionType: "Update", Title: "Price change", CreatedAt: at},
	}).Error)

	svc := NewConsolidationService(dao.NewLegacyLogDAO(tdb.DB), dao.NewAuditEventDAO(tdb.DB),
		func(context.Context) error { return postgres.RunMigrations(tdb.DSN, zap.NewNop()) }, nil)

	rep, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Len(t, rep.Sources, 2)
	assert.Equal(t, 2, rep.Sources[0].Migrated)
	assert.Equal(t, 1, rep.Sources[1].Migrated)
	assert.Zero(t, rep.Failed())
	assert.Equal(t, int64(3), rep.Total)

	var events []model.AuditEvent
	require.NoError(t, tdb.DB.Order("legacy_source, legacy_id").Find(&events).Error)
	require.Len(t, events, 3)
	assert.Equal(t, model.LogTypeAction, events[0].LogType)
	assert.Equal(t, "Login", events[0].ActionType)
	require.NotNil(t, events[0].AdminID)
	assert.Equal(t, admin.ID, *events[0].AdminID)
	assert.True(t, events[0].CreatedAt.Equal(at))
	// 已删除的管理员引用置空
	assert.Nil(t, events[1].AdminID)
	assert.Equal(t, model.LogTypeChange, events[2].LogType)

	again, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Sources[0].AlreadyMigrated)
	assert.Equal(t, 1, again.Sources[1].AlreadyMigrated)
	assert.Zero(t, again.Sources[0].Migrated+again.Sources[1].Migrated)
	assert.Equal(t, int64(3), again.Total)
}
