package dao

import (
	"context"
	"strings"
	"testing"
	"time"

	"go-storefront/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRunDB 只生成 SQL，不连接数据库
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 user=test dbname=test sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestAuditFilter_ListQuerySQL(t *testing.T) {
	d := NewAuditEventDAO(dryRunDB(t))
	admin := int64(12)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	f := AuditFilter{
		LogType:       model.LogTypeChange,
		AdminID:       &admin,
		Category:      "Product",
		TitleContains: "price",
		From:          from,
		To:            from.AddDate(0, 0, 2),
	}

	var rows []model.AuditEvent
	stmt := d.listQuery(context.Background(), f, 50, 100).Find(&rows).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, `FROM "audit_log"`)
	for _, frag := range []string{"log_type = $", "admin_id = $", "category = $", "title ILIKE $", "created_at >= $", "created_at < $"} {
		assert.Contains(t, sql, frag)
	}
	assert.NotContains(t, sql, "action_type")
	iCreated := strings.Index(sql, "created_at DESC")
	iID := strings.Index(sql, "id DESC")
	require.True(t, iCreated > 0 && iID > iCreated, sql)
	assert.Contains(t, sql, "LIMIT")
	assert.Contains(t, sql, "OFFSET")
	assert.Contains(t, stmt.Vars, "%price%")
	assert.Contains(t, stmt.Vars, "CHANGE")
}

func TestAuditFilter_TitleContainsEscapesWildcards(t *testing.T) {
	d := NewAuditEventDAO(dryRunDB(t))
	var rows []model.AuditEvent
	stmt := d.listQuery(context.Background(), AuditFilter{TitleContains: `50%_off\x`}, 10, 0).Find(&rows).Statement
	assert.Contains(t, stmt.SQL.String(), `ESCAPE '\'`)
	assert.Contains(t, stmt.Vars, `%50\%\_off\\x%`)
}

func TestAuditFilter_ZeroValueAddsNoPredicates(t *testing.T) {
	d := NewAuditEventDAO(dryRunDB(t))
	var rows []model.AuditEvent
	sql := d.listQuery(context.Background(), AuditFilter{}, 10, 0).Find(&rows).Statement.SQL.String()
	assert.NotContains(t, sql, "WHERE")
}
