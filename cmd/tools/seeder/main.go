package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-tenant-cart/internal/app"
	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/config"
	"github.com/noah-isme/toko-tenant-cart/internal/dbrouter"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
	"github.com/noah-isme/toko-tenant-cart/internal/obs"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// seeder loads a small catalog, one VIP price rule and one promotion into
// every registered tenant. Rows that already exist are left untouched.
func main() {
	cfg := config.MustLoad()
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pools, err := dbrouter.Open(ctx, dbrouter.Options{
		DefaultDSN:      cfg.DatabaseURL,
		TenantDSNs:      cfg.TenantDSNs,
		Tenants:         cfg.Tenants,
		ApplicationName: "toko-seeder",
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pools.Close()

	if err := app.Migrate(pools.DSNs(), logger); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	svcs := app.NewServices(cfg, pools.Router, nil, &logger)
	for _, id := range tenant.NewRegistry(cfg.Tenants...).List() {
		err := tenant.Run(ctx, id, func(ctx context.Context) error {
			return seedTenant(ctx, svcs, logger.With().Str("tenant", id).Logger())
		})
		if err != nil {
			logger.Fatal().Err(err).Str("tenant", id).Msg("seed tenant")
		}
	}
	logger.Info().Msg("seeding completed")
}

func seedTenant(ctx context.Context, svcs *app.Services, logger zerolog.Logger) error {
	now := time.Now().UTC()
	until := now.AddDate(0, 0, 30)

	laptop, created, err := ensureProduct(ctx, svcs, models.Product{
		SKU:           "SKU-LAPTOP-001",
		Name:          "Sample Laptop",
		Description:   "14 inch laptop for demos",
		BasePrice:     decimal.RequireFromString("999.99"),
		StockQuantity: 50,
		Category:      "Electronics",
		Brand:         "TechBrand",
		Active:        true,
	})
	if err != nil {
		return err
	}
	if created {
		vip := "VIP"
		if _, err := svcs.Pricing.Create(ctx, models.PriceRule{
			ProductID:     laptop.ID,
			Price:         decimal.RequireFromString("899.99"),
			PriceType:     "SPECIAL",
			CustomerGroup: &vip,
			MinQuantity:   1,
			ValidFrom:     &now,
			ValidTo:       &until,
			Active:        true,
		}); err != nil {
			return err
		}
	}

	if _, _, err := ensureProduct(ctx, svcs, models.Product{
		SKU:           "SKU-MOUSE-001",
		Name:          "Wireless Mouse",
		BasePrice:     decimal.RequireFromString("29.99"),
		StockQuantity: 200,
		Category:      "Accessories",
		Brand:         "TechBrand",
		Active:        true,
	}); err != nil {
		return err
	}

	_, err = svcs.Promotions.GetByCode(ctx, "ELEC10")
	switch {
	case err == nil:
	case errors.Is(err, common.ErrNotFound):
		if _, err := svcs.Promotions.Create(ctx, models.Promotion{
			Code:                 "ELEC10",
			Name:                 "10% off electronics",
			DiscountType:         models.Percentage,
			DiscountValue:        decimal.NewFromInt(10),
			MinOrderAmount:       decimal.NewNullDecimal(decimal.NewFromInt(50)),
			MaxDiscountAmount:    decimal.NewNullDecimal(decimal.NewFromInt(100)),
			ValidFrom:            now,
			ValidTo:              until,
			ApplicableCategories: []string{"Electronics"},
			Active:               true,
		}); err != nil {
			return err
		}
	default:
		return err
	}

	logger.Info().Msg("tenant seeded")
	return nil
}

func ensureProduct(ctx context.Context, svcs *app.Services, p models.Product) (models.Product, bool, error) {
	existing, err := svcs.Catalog.GetBySKU(ctx, p.SKU)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return models.Product{}, false, err
	}
	created, err := svcs.Catalog.Create(ctx, p)
	return created, err == nil, err
}
