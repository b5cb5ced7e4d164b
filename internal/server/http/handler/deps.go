package handler

import (
	adminh "go-storefront/internal/server/http/handler/admin"
	debugh "go-storefront/internal/server/http/handler/debug"
	shoph "go-storefront/internal/server/http/handler/shop"
)

// HandlerSet 聚合 admin / shop / debug 子包的 handler，供 router 使用
type HandlerSet struct {
	AuditLog     *adminh.AuditLogHandler
	Log          *adminh.LogHandler
	Product      *adminh.ProductHandler
	Cache        *adminh.CacheHandler
	ShopProducts *shoph.ProductHandler
	Cart         *shoph.CartHandler
	Debug        *debugh.Handler
}

func NewHandlerSet(ad adminh.Dependencies, sd shoph.Dependencies, dbg debugh.Dependencies) *HandlerSet {
	return &HandlerSet{
		AuditLog:     adminh.NewAuditLogHandler(ad),
		Log:          adminh.NewLogHandler(ad),
		Product:      adminh.NewProductHandler(ad),
		Cache:        adminh.NewCacheHandler(ad),
		ShopProducts: shoph.NewProductHandler(sd),
		Cart:         shoph.NewCartHandler(sd),
		Debug:        debugh.New(dbg),
	}
}
