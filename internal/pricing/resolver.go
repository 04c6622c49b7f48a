package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
	"github.com/noah-isme/toko-tenant-cart/internal/obs"
)

// ProductReader loads products from the routed partition.
type ProductReader interface {
	Get(ctx context.Context, id uuid.UUID) (models.Product, error)
}

// RuleReader loads the active price rules of a product.
type RuleReader interface {
	ActiveForProduct(ctx context.Context, productID uuid.UUID) ([]models.PriceRule, error)
}

// Resolver computes effective prices. It never writes.
type Resolver struct {
	Products ProductReader
	Rules    RuleReader
	Now      func() time.Time
	Logger   *zerolog.Logger
}

// EffectivePrice returns the unit price of productID for group at qty. It
// returns common.ErrNotFound when the product does not exist.
func (r *Resolver) EffectivePrice(ctx context.Context, productID uuid.UUID, group *string, qty int) (decimal.Decimal, error) {
	product, err := r.Products.Get(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return r.PriceFor(ctx, product, group, qty)
}

// PriceFor resolves the effective price of an already loaded product. A
// blank group is treated as no group.
func (r *Resolver) PriceFor(ctx context.Context, product models.Product, group *string, qty int) (decimal.Decimal, error) {
	group = common.OptionalString(group)
	rules, err := r.Rules.ActiveForProduct(ctx, product.ID)
	if err != nil {
		return decimal.Zero, err
	}
	rule := SelectRule(rules, group, qty, r.now())
	if rule == nil {
		obs.IncPriceResolution("base")
		return product.BasePrice, nil
	}
	obs.IncPriceResolution("rule")
	logger := obs.WithTenant(ctx, r.logger())
	logger.Debug().
		Str("product_id", product.ID.String()).
		Str("rule_id", rule.ID.String()).
		Int("quantity", qty).
		Msg("price rule selected")
	return rule.Price, nil
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Resolver) logger() zerolog.Logger {
	if r.Logger != nil {
		return *r.Logger
	}
	return zerolog.Nop()
}
