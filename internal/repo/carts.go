package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/toko-tenant-cart/internal/models"
)

const cartSelect = `SELECT c.id, COALESCE(c.session_id, ''), COALESCE(c.user_id, ''), c.promotion_id, COALESCE(p.code, ''),
	c.subtotal, c.discount_amount, c.total_amount, c.created_at, c.updated_at
	FROM carts c LEFT JOIN promotions p ON p.id = c.promotion_id`

// Carts stores carts and their line items.
type Carts struct {
	Router Router
}

// GetBySession loads the cart owned by sessionID.
func (s Carts) GetBySession(ctx context.Context, sessionID string) (models.Cart, error) {
	return s.get(ctx, cartSelect+` WHERE c.session_id = $1`, sessionID)
}

// GetByUser loads the cart owned by userID.
func (s Carts) GetByUser(ctx context.Context, userID string) (models.Cart, error) {
	return s.get(ctx, cartSelect+` WHERE c.user_id = $1`, userID)
}

func (s Carts) get(ctx context.Context, query string, arg string) (models.Cart, error) {
	db := s.Router.For(ctx)
	var c models.Cart
	err := db.QueryRow(ctx, query, arg).Scan(&c.ID, &c.SessionID, &c.UserID, &c.PromotionID, &c.PromotionCode,
		&c.Subtotal, &c.DiscountAmount, &c.TotalAmount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Cart{}, mapErr(err, "cart")
	}
	rows, err := db.Query(ctx, `SELECT product_id, sku, name, quantity, unit_price, line_total, added_at
		FROM cart_items WHERE cart_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return models.Cart{}, mapErr(err, "cart items")
	}
	defer rows.Close()
	c.Items = []models.CartItem{}
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.Name, &it.Quantity, &it.UnitPrice, &it.LineTotal, &it.AddedAt); err != nil {
			return models.Cart{}, mapErr(err, "scan cart item")
		}
		c.Items = append(c.Items, it)
	}
	return c, mapErr(rows.Err(), "cart items")
}

// Save writes the cart header and replaces its items in one transaction.
func (s Carts) Save(ctx context.Context, c models.Cart) (models.Cart, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := inTx(ctx, s.Router.For(ctx), func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO carts (id, session_id, user_id, promotion_id, subtotal, discount_amount, total_amount)
			VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET promotion_id = EXCLUDED.promotion_id, subtotal = EXCLUDED.subtotal,
				discount_amount = EXCLUDED.discount_amount, total_amount = EXCLUDED.total_amount, updated_at = now()
			RETURNING created_at, updated_at`,
			c.ID, c.SessionID, c.UserID, c.PromotionID, c.Subtotal, c.DiscountAmount, c.TotalAmount,
		).Scan(&c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i, it := range c.Items {
			batch.Queue(`INSERT INTO cart_items (cart_id, product_id, position, sku, name, quantity, unit_price, line_total, added_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				c.ID, it.ProductID, i, it.SKU, it.Name, it.Quantity, it.UnitPrice, it.LineTotal, it.AddedAt)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return models.Cart{}, mapErr(err, "cart")
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return c, nil
}

// DeleteOlderThan removes carts last modified before cutoff and reports how many were removed.
func (s Carts) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.Router.For(ctx).Exec(ctx, `DELETE FROM carts WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, mapErr(err, "expire carts")
	}
	return tag.RowsAffected(), nil
}
