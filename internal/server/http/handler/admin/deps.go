package admin

import (
	"go-storefront/internal/logging"
	"go-storefront/internal/pkg/cache"
	"go-storefront/internal/security/screen"
	"go-storefront/internal/service"
)

// Dependencies admin 子包最小依赖集合
type Dependencies struct {
	Audit   *service.AuditService
	Catalog *service.CatalogService
	Screen  *screen.Screener
	Cache   cache.Cache
	Logger  *logging.Logger
}
