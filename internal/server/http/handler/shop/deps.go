package shop

import (
	"go-storefront/internal/logging"
	"go-storefront/internal/security/session"
	"go-storefront/internal/service"
)

type Dependencies struct {
	Catalog *service.CatalogService
	Cart    *service.CartService
	Guests  *session.GuestStore
	Logger  *logging.Logger
}
