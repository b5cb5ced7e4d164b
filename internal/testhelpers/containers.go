// Package testhelpers 集成测试共用的容器，需 Docker；-short 时跳过
package testhelpers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go-storefront/internal/repository/postgres"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	postgresImage = "postgres:16-alpine"
	redisImage    = "redis:7-alpine"
)

// TestDB 已执行全部迁移的共享库
type TestDB struct {
	Container testcontainers.Container
	DSN       string
	DB        *gorm.DB
}

var (
	sharedDB     *TestDB
	sharedDBOnce sync.Once
	sharedDBErr  error

	sharedRedis     *redis.Client
	sharedRedisOnce sync.Once
	sharedRedisErr  error
)

// GetTestDB 整个测试进程共用一个容器
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode (requires Docker)")
	}
	sharedDBOnce.Do(func() {
		sharedDB, sharedDBErr = setupPostgres()
	})
	if sharedDBErr != nil {
		t.Fatalf("setup postgres container: %v", sharedDBErr)
	}
	return sharedDB
}

func setupPostgres() (*TestDB, error) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "storefront",
			"POSTGRES_USER":     "storefront",
			"POSTGRES_PASSWORD": "storefront",
		},
		// 初始化阶段会重启一次
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("container port: %w", err)
	}
	dsn := fmt.Sprintf("postgres://storefront:storefront@%s:%s/storefront?sslmode=disable", host, port.Port())

	if err := postgres.RunMigrations(dsn, zap.NewNop()); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	db, err := postgres.New(postgres.Config{DSN: dsn, MaxOpen: 5, MaxIdle: 2})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return &TestDB{Container: container, DSN: dsn, DB: db}, nil
}

// Truncate 清空表并重置自增
func (d *TestDB) Truncate(t *testing.T, tables ...string) {
	t.Helper()
	if len(tables) == 0 {
		return
	}
	sql := "TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE"
	if err := d.DB.Exec(sql).Error; err != nil {
		t.Fatalf("truncate %v: %v", tables, err)
	}
}

// GetRedis 每次调用前 FLUSHDB
func GetRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode (requires Docker)")
	}
	sharedRedisOnce.Do(func() {
		sharedRedis, sharedRedisErr = setupRedis()
	})
	if sharedRedisErr != nil {
		t.Fatalf("setup redis container: %v", sharedRedisErr)
	}
	if err := sharedRedis.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return sharedRedis
}

func setupRedis() (*redis.Client, error) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return nil, fmt.Errorf("container port: %w", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	for i := 0; i < 10; i++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			return rdb, nil
		}
		time.Sleep(300 * time.Millisecond)
	}
	return nil, fmt.Errorf("ping redis: %w", err)
}
