package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-tenant-cart/internal/models"
)

const promotionColumns = `id, code, name, description, discount_type, discount_value, min_order_amount, max_discount_amount,
	usage_limit, usage_count, valid_from, valid_to, applicable_categories, applicable_products, active, created_at, updated_at`

// Promotions stores promotion definitions and their usage counters.
type Promotions struct {
	Router Router
}

func scanPromotion(row scanner) (models.Promotion, error) {
	var (
		p            models.Promotion
		discountType string
		productIDs   []string
	)
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &discountType, &p.DiscountValue,
		&p.MinOrderAmount, &p.MaxDiscountAmount, &p.UsageLimit, &p.UsageCount, &p.ValidFrom, &p.ValidTo,
		&p.ApplicableCategories, &productIDs, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if p.DiscountType, err = models.ParseDiscountType(discountType); err != nil {
		return p, err
	}
	p.ApplicableProductIDs = make([]uuid.UUID, 0, len(productIDs))
	for _, raw := range productIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return p, err
		}
		p.ApplicableProductIDs = append(p.ApplicableProductIDs, id)
	}
	return p, nil
}

func productIDStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (s Promotions) list(ctx context.Context, query string, args ...any) ([]models.Promotion, error) {
	rows, err := s.Router.For(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "list promotions")
	}
	defer rows.Close()
	out := []models.Promotion{}
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, mapErr(err, "scan promotion")
		}
		out = append(out, p)
	}
	return out, mapErr(rows.Err(), "list promotions")
}

// Get loads a promotion by id.
func (s Promotions) Get(ctx context.Context, id uuid.UUID) (models.Promotion, error) {
	row := s.Router.For(ctx).QueryRow(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
	p, err := scanPromotion(row)
	return p, mapErr(err, "promotion")
}

// GetByCode loads a promotion by its code.
func (s Promotions) GetByCode(ctx context.Context, code string) (models.Promotion, error) {
	row := s.Router.For(ctx).QueryRow(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE code = $1`, code)
	p, err := scanPromotion(row)
	return p, mapErr(err, "promotion")
}

// List returns every promotion.
func (s Promotions) List(ctx context.Context) ([]models.Promotion, error) {
	return s.list(ctx, `SELECT `+promotionColumns+` FROM promotions ORDER BY created_at, id`)
}

// ListActive returns enabled promotions whose window contains now.
func (s Promotions) ListActive(ctx context.Context, now time.Time) ([]models.Promotion, error) {
	return s.list(ctx, `SELECT `+promotionColumns+` FROM promotions
		WHERE active AND valid_from <= $1 AND valid_to >= $1 ORDER BY created_at, id`, now)
}

// Create inserts p, assigning an id when it has none.
func (s Promotions) Create(ctx context.Context, p models.Promotion) (models.Promotion, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := s.Router.For(ctx).QueryRow(ctx, `
		INSERT INTO promotions (id, code, name, description, discount_type, discount_value, min_order_amount,
			max_discount_amount, usage_limit, usage_count, valid_from, valid_to, applicable_categories, applicable_products, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+promotionColumns,
		p.ID, p.Code, p.Name, p.Description, p.DiscountType.String(), p.DiscountValue, p.MinOrderAmount,
		p.MaxDiscountAmount, p.UsageLimit, p.UsageCount, p.ValidFrom, p.ValidTo,
		nonNil(p.ApplicableCategories), productIDStrings(p.ApplicableProductIDs), p.Active)
	created, err := scanPromotion(row)
	return created, mapErr(err, "promotion")
}

// Update overwrites every mutable column of p, including the usage count.
func (s Promotions) Update(ctx context.Context, p models.Promotion) (models.Promotion, error) {
	row := s.Router.For(ctx).QueryRow(ctx, `
		UPDATE promotions SET code = $2, name = $3, description = $4, discount_type = $5, discount_value = $6,
			min_order_amount = $7, max_discount_amount = $8, usage_limit = $9, usage_count = $10,
			valid_from = $11, valid_to = $12, applicable_categories = $13, applicable_products = $14,
			active = $15, updated_at = now()
		WHERE id = $1
		RETURNING `+promotionColumns,
		p.ID, p.Code, p.Name, p.Description, p.DiscountType.String(), p.DiscountValue, p.MinOrderAmount,
		p.MaxDiscountAmount, p.UsageLimit, p.UsageCount, p.ValidFrom, p.ValidTo,
		nonNil(p.ApplicableCategories), productIDStrings(p.ApplicableProductIDs), p.Active)
	updated, err := scanPromotion(row)
	return updated, mapErr(err, "promotion")
}

// Delete removes a promotion. Carts referencing it lose the reference.
func (s Promotions) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Router.For(ctx).Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "promotion")
	}
	return notFoundUnlessAffected(tag, "promotion")
}
