package app

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-tenant-cart/internal/cart"
	"github.com/noah-isme/toko-tenant-cart/internal/catalog"
	"github.com/noah-isme/toko-tenant-cart/internal/config"
	"github.com/noah-isme/toko-tenant-cart/internal/pricing"
	"github.com/noah-isme/toko-tenant-cart/internal/promotion"
	"github.com/noah-isme/toko-tenant-cart/internal/repo"
)

// Services holds the domain services built over the routed stores.
type Services struct {
	Catalog    *catalog.Service
	Pricing    *pricing.Service
	Promotions *promotion.Service
	Cart       *cart.Service
}

// NewServices builds every domain service over router. rdb may be nil, which
// disables the catalog cache.
func NewServices(cfg *config.Config, router repo.Router, rdb *redis.Client, logger *zerolog.Logger) *Services {
	products := repo.Products{Router: router}
	rules := repo.PriceRules{Router: router}
	promotions := repo.Promotions{Router: router}
	carts := repo.Carts{Router: router}

	var productCache *catalog.Cache
	if rdb != nil {
		productCache = catalog.NewCache(rdb, cfg.CatalogCacheTTL, router.Partition)
	}

	pricingSvc := pricing.NewService(products, rules, logger)
	promoSvc := &promotion.Service{Store: promotions, Logger: logger}
	return &Services{
		Catalog: catalog.NewService(catalog.ServiceConfig{
			Store:        products,
			Cache:        productCache,
			DefaultLimit: cfg.CatalogPageSize,
			Logger:       logger,
		}),
		Pricing:    pricingSvc,
		Promotions: promoSvc,
		Cart: &cart.Service{
			Carts:      carts,
			Products:   products,
			Prices:     pricingSvc.Resolver,
			Promotions: promoSvc,
			Logger:     logger,
		},
	}
}
