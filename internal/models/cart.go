package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a shopping cart owned by an anonymous session or a user. Its
// monetary fields are derived from Items and the applied promotion.
type Cart struct {
	ID             uuid.UUID       `json:"id"`
	SessionID      string          `json:"sessionId,omitempty"`
	UserID         string          `json:"userId,omitempty"`
	Items          []CartItem      `json:"items"`
	PromotionID    *uuid.UUID      `json:"promotionId,omitempty"`
	PromotionCode  string          `json:"promotionCode,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CartItem is a line of a cart. UnitPrice is the effective price captured at
// the time the line was added or last updated.
type CartItem struct {
	ProductID uuid.UUID       `json:"productId"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	AddedAt   time.Time       `json:"addedAt"`
}

// Clone returns a deep copy of c so it can be mutated without touching the original.
func (c Cart) Clone() Cart {
	c.Items = append([]CartItem(nil), c.Items...)
	if c.PromotionID != nil {
		id := *c.PromotionID
		c.PromotionID = &id
	}
	return c
}

// ItemIndex returns the position of productID in Items, or -1.
func (c Cart) ItemIndex(productID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Reprice sets quantity and unit price and refreshes the line total.
func (i *CartItem) Reprice(qty int, unitPrice decimal.Decimal) {
	i.Quantity = qty
	i.UnitPrice = unitPrice
	i.LineTotal = unitPrice.Mul(decimal.NewFromInt(int64(qty)))
}
