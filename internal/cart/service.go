// Package cart implements the cart state machine. Every operation loads the
// cart, mutates a private copy, recomputes the derived totals and persists the
// copy only when the whole operation succeeded.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
	"github.com/noah-isme/toko-tenant-cart/internal/obs"
	"github.com/noah-isme/toko-tenant-cart/internal/pricing"
	"github.com/noah-isme/toko-tenant-cart/internal/promotion"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// DefaultAbandonDays is the age past which ExpireAbandoned removes carts when no threshold is given.
const DefaultAbandonDays = 7

// Store persists carts in the routed partition.
type Store interface {
	GetBySession(ctx context.Context, sessionID string) (models.Cart, error)
	GetByUser(ctx context.Context, userID string) (models.Cart, error)
	Save(ctx context.Context, c models.Cart) (models.Cart, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Products loads catalog entries.
type Products interface {
	Get(ctx context.Context, id uuid.UUID) (models.Product, error)
}

// Prices resolves the effective unit price of a loaded product.
type Prices interface {
	PriceFor(ctx context.Context, product models.Product, group *string, qty int) (decimal.Decimal, error)
}

// Promotions looks up promotions. Discount evaluates a promotion and records
// why it was rejected; it serves explicit apply requests only.
type Promotions interface {
	Get(ctx context.Context, id uuid.UUID) (models.Promotion, error)
	GetByCode(ctx context.Context, code string) (models.Promotion, error)
	Discount(p *models.Promotion, amount decimal.Decimal) decimal.Decimal
}

// Owner identifies a cart by user or anonymous session. UserID wins when both are set.
type Owner struct {
	SessionID string
	UserID    string
}

func (o Owner) valid() bool {
	return strings.TrimSpace(o.SessionID) != "" || strings.TrimSpace(o.UserID) != ""
}

// Service encapsulates cart domain operations.
type Service struct {
	Carts      Store
	Products   Products
	Prices     Prices
	Promotions Promotions
	Now        func() time.Time
	Logger     *zerolog.Logger
}

var (
	errBadQuantity = common.BadRequest("quantity", "quantity must be positive", nil)
	errNoOwner     = common.BadRequest("sessionId", "session or user id is required", nil)
)

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) log(ctx context.Context) *zerolog.Logger {
	base := zerolog.Nop()
	if s.Logger != nil {
		base = *s.Logger
	}
	logger := obs.WithTenant(ctx, base)
	return &logger
}

// load returns the stored cart of owner or a new unsaved empty one.
func (s *Service) load(ctx context.Context, owner Owner) (models.Cart, error) {
	if !owner.valid() {
		return models.Cart{}, errNoOwner
	}
	var (
		c   models.Cart
		err error
	)
	if owner.UserID != "" {
		c, err = s.Carts.GetByUser(ctx, owner.UserID)
	} else {
		c, err = s.Carts.GetBySession(ctx, owner.SessionID)
	}
	switch {
	case err == nil:
		return c.Clone(), nil
	case errors.Is(err, common.ErrNotFound):
		return models.Cart{
			SessionID:      owner.SessionID,
			UserID:         owner.UserID,
			Items:          []models.CartItem{},
			Subtotal:       decimal.Zero,
			DiscountAmount: decimal.Zero,
			TotalAmount:    decimal.Zero,
		}, nil
	default:
		return models.Cart{}, err
	}
}

// mutate runs fn against a private copy of owner's cart, recomputes it and
// persists it. Nothing is written when fn or the recompute fails.
func (s *Service) mutate(ctx context.Context, op string, owner Owner, fn func(*models.Cart) error) (c models.Cart, err error) {
	defer func() { obs.IncCartOperation(op, err) }()
	c, err = s.load(ctx, owner)
	if err != nil {
		return models.Cart{}, err
	}
	if fn != nil {
		if err = fn(&c); err != nil {
			return models.Cart{}, err
		}
	}
	if err = s.Recompute(ctx, &c); err != nil {
		return models.Cart{}, err
	}
	saved, err := s.Carts.Save(ctx, c)
	if err != nil {
		return models.Cart{}, err
	}
	s.log(ctx).Debug().Str("cart_id", saved.ID.String()).Str("operation", op).Msg("cart saved")
	return saved, nil
}

// GetOrCreate returns owner's cart, creating and storing an empty one on first access.
func (s *Service) GetOrCreate(ctx context.Context, owner Owner) (models.Cart, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return models.Cart{}, err
	}
	if c.ID != uuid.Nil {
		return c, nil
	}
	created, err := s.Carts.Save(ctx, c)
	if err != nil {
		return models.Cart{}, err
	}
	s.log(ctx).Info().Str("cart_id", created.ID.String()).Msg("cart created")
	return created, nil
}

// product loads productID and checks it can be sold in qty units.
func (s *Service) product(ctx context.Context, productID uuid.UUID, qty int) (models.Product, error) {
	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		return models.Product{}, err
	}
	if !p.Active {
		return models.Product{}, fmt.Errorf("product %s is not available: %w", productID, common.ErrBusinessRule)
	}
	if !p.InStock(qty) {
		return models.Product{}, fmt.Errorf("insufficient stock for %s: requested %d, available %d: %w",
			p.SKU, qty, p.StockQuantity, common.ErrBusinessRule)
	}
	return p, nil
}

// AddItem adds qty units of productID. An existing line for the product is
// merged and repriced at the cumulative quantity.
func (s *Service) AddItem(ctx context.Context, owner Owner, productID uuid.UUID, qty int, group *string) (models.Cart, error) {
	if qty <= 0 {
		obs.IncCartOperation("add_item", errBadQuantity)
		return models.Cart{}, errBadQuantity
	}
	return s.mutate(ctx, "add_item", owner, func(c *models.Cart) error {
		idx := c.ItemIndex(productID)
		want := qty
		if idx >= 0 {
			want += c.Items[idx].Quantity
		}
		p, err := s.product(ctx, productID, want)
		if err != nil {
			return err
		}
		price, err := s.Prices.PriceFor(ctx, p, group, want)
		if err != nil {
			return err
		}
		if idx >= 0 {
			c.Items[idx].Reprice(want, price)
			return nil
		}
		item := models.CartItem{ProductID: p.ID, SKU: p.SKU, Name: p.Name, AddedAt: s.now()}
		item.Reprice(want, price)
		c.Items = append(c.Items, item)
		return nil
	})
}

// UpdateItem sets the quantity of an existing line. A quantity of zero or
// less removes the line.
func (s *Service) UpdateItem(ctx context.Context, owner Owner, productID uuid.UUID, qty int, group *string) (models.Cart, error) {
	return s.mutate(ctx, "update_item", owner, func(c *models.Cart) error {
		idx := c.ItemIndex(productID)
		if idx < 0 {
			return fmt.Errorf("product %s not in cart: %w", productID, common.ErrNotFound)
		}
		if qty <= 0 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return nil
		}
		p, err := s.product(ctx, productID, qty)
		if err != nil {
			return err
		}
		price, err := s.Prices.PriceFor(ctx, p, group, qty)
		if err != nil {
			return err
		}
		c.Items[idx].Reprice(qty, price)
		return nil
	})
}

// RemoveItem drops the line of productID. Removing an absent line is not an error.
func (s *Service) RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID) (models.Cart, error) {
	return s.mutate(ctx, "remove_item", owner, func(c *models.Cart) error {
		if idx := c.ItemIndex(productID); idx >= 0 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		}
		return nil
	})
}

// ApplyPromotion attaches the active promotion with code. It fails when the
// code is unknown or the promotion yields no discount on the current subtotal.
func (s *Service) ApplyPromotion(ctx context.Context, owner Owner, code string) (models.Cart, error) {
	return s.mutate(ctx, "apply_promotion", owner, func(c *models.Cart) error {
		p, err := s.Promotions.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("promotion code %q: %w", code, common.ErrInvalidArgument)
			}
			return err
		}
		subtotal := pricing.Subtotal(c.Items)
		if s.Promotions.Discount(&p, subtotal).IsZero() {
			return fmt.Errorf("promotion %q is not applicable to this cart: %w", p.Code, common.ErrBusinessRule)
		}
		id := p.ID
		c.PromotionID = &id
		c.PromotionCode = p.Code
		s.log(ctx).Info().Str("promotion_id", id.String()).Str("code", p.Code).Msg("promotion applied to cart")
		return nil
	})
}

// RemovePromotion detaches the applied promotion, if any.
func (s *Service) RemovePromotion(ctx context.Context, owner Owner) (models.Cart, error) {
	return s.mutate(ctx, "remove_promotion", owner, func(c *models.Cart) error {
		c.PromotionID = nil
		c.PromotionCode = ""
		return nil
	})
}

// Clear empties the cart and detaches its promotion.
func (s *Service) Clear(ctx context.Context, owner Owner) (models.Cart, error) {
	return s.mutate(ctx, "clear", owner, func(c *models.Cart) error {
		c.Items = []models.CartItem{}
		c.PromotionID = nil
		c.PromotionCode = ""
		return nil
	})
}

// ExpireAbandoned deletes carts of the routed tenant not modified for days.
// It returns the number of carts removed.
func (s *Service) ExpireAbandoned(ctx context.Context, days int) (n int64, err error) {
	defer func() { obs.IncCartOperation("expire_abandoned", err) }()
	if days < 0 {
		return 0, common.BadRequest("daysOld", "daysOld must not be negative", nil)
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	n, err = s.Carts.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	obs.AddCartsExpired(tenant.OrDefault(ctx), n)
	s.log(ctx).Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("abandoned carts expired")
	return n, nil
}

// Recompute refreshes the derived totals of c from its lines and applied
// promotion. The discount is evaluated again against the current subtotal. An
// applied promotion that no longer exists is detached.
func (s *Service) Recompute(ctx context.Context, c *models.Cart) error {
	discount := decimal.Zero
	subtotal := pricing.Subtotal(c.Items)
	if c.PromotionID != nil {
		p, err := s.Promotions.Get(ctx, *c.PromotionID)
		switch {
		case err == nil:
			discount = promotion.Calculate(&p, subtotal, s.now())
			c.PromotionCode = p.Code
		case errors.Is(err, common.ErrNotFound):
			s.log(ctx).Warn().Str("promotion_id", c.PromotionID.String()).Msg("applied promotion vanished; detaching")
			c.PromotionID = nil
			c.PromotionCode = ""
		default:
			return err
		}
	}
	summary := pricing.Compute(c.Items, discount)
	c.Subtotal = summary.Subtotal
	c.DiscountAmount = summary.Discount
	c.TotalAmount = summary.Total
	return nil
}
