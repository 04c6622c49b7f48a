package promotion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
	"github.com/noah-isme/toko-tenant-cart/internal/obs"
)

// Store persists promotions in the routed partition.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (models.Promotion, error)
	GetByCode(ctx context.Context, code string) (models.Promotion, error)
	List(ctx context.Context) ([]models.Promotion, error)
	ListActive(ctx context.Context, now time.Time) ([]models.Promotion, error)
	Create(ctx context.Context, p models.Promotion) (models.Promotion, error)
	Update(ctx context.Context, p models.Promotion) (models.Promotion, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service manages promotions and evaluates discounts against the clock.
type Service struct {
	Store  Store
	Now    func() time.Time
	Logger *zerolog.Logger
}

// List returns every promotion of the tenant.
func (s *Service) List(ctx context.Context) ([]models.Promotion, error) {
	return s.Store.List(ctx)
}

// Active returns promotions that are enabled, inside their window and below their usage limit.
func (s *Service) Active(ctx context.Context) ([]models.Promotion, error) {
	rows, err := s.Store.ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]models.Promotion, 0, len(rows))
	for _, p := range rows {
		if p.UsageExhausted() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ActiveForCategory narrows Active to promotions applicable to category.
func (s *Service) ActiveForCategory(ctx context.Context, category string) ([]models.Promotion, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Promotion, 0, len(active))
	for _, p := range active {
		if p.AppliesToCategory(category) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Get loads a promotion by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Promotion, error) {
	return s.Store.Get(ctx, id)
}

// GetByCode returns the active promotion with code. Unknown or inactive codes are not found.
func (s *Service) GetByCode(ctx context.Context, code string) (models.Promotion, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Promotion{}, common.BadRequest("code", "code is required", nil)
	}
	p, err := s.Store.GetByCode(ctx, code)
	if err != nil {
		return models.Promotion{}, err
	}
	if !p.Active {
		return models.Promotion{}, fmt.Errorf("promotion %q inactive: %w", code, common.ErrNotFound)
	}
	return p, nil
}

// Create stores a new promotion with a zero usage count.
func (s *Service) Create(ctx context.Context, p models.Promotion) (models.Promotion, error) {
	p.UsageCount = 0
	p.Code = strings.TrimSpace(p.Code)
	if err := checkPromotion(p); err != nil {
		return models.Promotion{}, err
	}
	created, err := s.Store.Create(ctx, p)
	if err != nil {
		return models.Promotion{}, err
	}
	s.log(ctx).Info().Str("promotion_id", created.ID.String()).Str("code", created.Code).Msg("promotion created")
	return created, nil
}

// Update merges patch into the promotion identified by id.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch models.PromotionPatch) (models.Promotion, error) {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return models.Promotion{}, err
	}
	next := patch.Apply(current)
	if err := checkPromotion(next); err != nil {
		return models.Promotion{}, err
	}
	updated, err := s.Store.Update(ctx, next)
	if err != nil {
		return models.Promotion{}, err
	}
	s.log(ctx).Info().Str("promotion_id", id.String()).Msg("promotion updated")
	return updated, nil
}

// Delete removes the promotion identified by id.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.log(ctx).Info().Str("promotion_id", id.String()).Msg("promotion deleted")
	return nil
}

// Deactivate clears the active flag of the promotion identified by id.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	inactive := false
	_, err := s.Update(ctx, id, models.PromotionPatch{Active: &inactive})
	return err
}

// Discount evaluates p against amount at the service clock and records rejections.
func (s *Service) Discount(p *models.Promotion, amount decimal.Decimal) decimal.Decimal {
	now := s.now()
	if err := Check(p, amount, now); err != nil {
		obs.IncPromotionRejection(Reason(err))
		return decimal.Zero
	}
	return Calculate(p, amount, now)
}

// CalculateDiscount loads the promotion by id and evaluates it against amount.
func (s *Service) CalculateDiscount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Discount(&p, amount), nil
}

// CalculateDiscountByCode evaluates the active promotion with code against amount.
func (s *Service) CalculateDiscountByCode(ctx context.Context, code string, amount decimal.Decimal) (decimal.Decimal, error) {
	p, err := s.GetByCode(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Discount(&p, amount), nil
}

// IncrementUsage adds one to the usage count of the promotion identified by id.
// It is not atomic with Discount: two concurrent redemptions may both pass the
// usage limit check before either increments.
func (s *Service) IncrementUsage(ctx context.Context, id uuid.UUID) (models.Promotion, error) {
	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return models.Promotion{}, err
	}
	p.UsageCount++
	updated, err := s.Store.Update(ctx, p)
	if err != nil {
		return models.Promotion{}, err
	}
	s.log(ctx).Info().Str("promotion_id", id.String()).Int("usage_count", updated.UsageCount).Msg("promotion usage incremented")
	return updated, nil
}

func checkPromotion(p models.Promotion) error {
	switch {
	case p.Code == "":
		return common.BadRequest("code", "code is required", nil)
	case p.ValidFrom.IsZero() || p.ValidTo.IsZero():
		return common.BadRequest("validFrom", "validFrom and validTo are required", nil)
	case p.ValidTo.Before(p.ValidFrom):
		return common.BadRequest("validTo", "validTo must not precede validFrom", nil)
	case p.DiscountValue.IsNegative():
		return common.BadRequest("discountValue", "discountValue must not be negative", nil)
	case p.UsageLimit != nil && *p.UsageLimit < 0:
		return common.BadRequest("usageLimit", "usageLimit must not be negative", nil)
	}
	switch p.DiscountType {
	case models.Percentage, models.FixedAmount, models.BuyXGetY:
		return nil
	default:
		return common.BadRequest("discountType", "unsupported discount type", nil)
	}
}

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
