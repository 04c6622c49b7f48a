package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-tenant-cart/internal/models"
)

const ruleColumns = `id, product_id, price, price_type, customer_group, min_quantity, valid_from, valid_to, active, created_at, updated_at`

// PriceRules stores per-product price overrides.
type PriceRules struct {
	Router Router
}

func scanRule(row scanner) (models.PriceRule, error) {
	var r models.PriceRule
	err := row.Scan(&r.ID, &r.ProductID, &r.Price, &r.PriceType, &r.CustomerGroup, &r.MinQuantity,
		&r.ValidFrom, &r.ValidTo, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s PriceRules) list(ctx context.Context, query string, args ...any) ([]models.PriceRule, error) {
	rows, err := s.Router.For(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "list price rules")
	}
	defer rows.Close()
	out := []models.PriceRule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, mapErr(err, "scan price rule")
		}
		out = append(out, r)
	}
	return out, mapErr(rows.Err(), "list price rules")
}

// Get loads a rule by id.
func (s PriceRules) Get(ctx context.Context, id uuid.UUID) (models.PriceRule, error) {
	row := s.Router.For(ctx).QueryRow(ctx, `SELECT `+ruleColumns+` FROM price_rules WHERE id = $1`, id)
	r, err := scanRule(row)
	return r, mapErr(err, "price rule")
}

// ActiveForProduct returns the active rules of productID in creation order.
// Window, group and quantity filtering happen in pricing.SelectRule.
func (s PriceRules) ActiveForProduct(ctx context.Context, productID uuid.UUID) ([]models.PriceRule, error) {
	return s.list(ctx, `SELECT `+ruleColumns+` FROM price_rules WHERE product_id = $1 AND active ORDER BY created_at, id`, productID)
}

// ListByType returns rules classified as priceType.
func (s PriceRules) ListByType(ctx context.Context, priceType string) ([]models.PriceRule, error) {
	return s.list(ctx, `SELECT `+ruleColumns+` FROM price_rules WHERE price_type = $1 ORDER BY created_at, id`, priceType)
}

// Create inserts r, assigning an id when it has none.
func (s PriceRules) Create(ctx context.Context, r models.PriceRule) (models.PriceRule, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	row := s.Router.For(ctx).QueryRow(ctx, `
		INSERT INTO price_rules (id, product_id, price, price_type, customer_group, min_quantity, valid_from, valid_to, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+ruleColumns,
		r.ID, r.ProductID, r.Price, r.PriceType, r.CustomerGroup, r.MinQuantity, r.ValidFrom, r.ValidTo, r.Active)
	created, err := scanRule(row)
	return created, mapErr(err, "price rule")
}

// Update overwrites every mutable column of r.
func (s PriceRules) Update(ctx context.Context, r models.PriceRule) (models.PriceRule, error) {
	row := s.Router.For(ctx).QueryRow(ctx, `
		UPDATE price_rules SET price = $2, price_type = $3, customer_group = $4, min_quantity = $5,
			valid_from = $6, valid_to = $7, active = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+ruleColumns,
		r.ID, r.Price, r.PriceType, r.CustomerGroup, r.MinQuantity, r.ValidFrom, r.ValidTo, r.Active)
	updated, err := scanRule(row)
	return updated, mapErr(err, "price rule")
}

// Delete removes a rule.
func (s PriceRules) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Router.For(ctx).Exec(ctx, `DELETE FROM price_rules WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "price rule")
	}
	return notFoundUnlessAffected(tag, "price rule")
}
