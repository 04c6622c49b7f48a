// Package models holds the tenant-scoped catalog, pricing, promotion and cart entities.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. SKU is unique within a tenant partition only.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	BasePrice     decimal.Decimal `json:"basePrice"`
	StockQuantity int             `json:"stockQuantity"`
	Category      string          `json:"category,omitempty"`
	Brand         string          `json:"brand,omitempty"`
	Active        bool            `json:"active"`
	ImageURLs     []string        `json:"imageUrls"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// InStock reports whether qty units can be taken from stock.
func (p Product) InStock(qty int) bool {
	return p.StockQuantity >= qty
}

// ProductPatch carries a partial product update. Nil fields are left untouched.
type ProductPatch struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	BasePrice     *decimal.Decimal `json:"basePrice,omitempty"`
	StockQuantity *int             `json:"stockQuantity,omitempty" validate:"omitempty,min=0"`
	Category      *string          `json:"category,omitempty"`
	Brand         *string          `json:"brand,omitempty"`
	ImageURLs     []string         `json:"imageUrls,omitempty"`
	Active        *bool            `json:"active,omitempty"`
}

// Apply returns a copy of p with every non-nil patch field written over it.
func (pp ProductPatch) Apply(p Product) Product {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.BasePrice != nil {
		p.BasePrice = *pp.BasePrice
	}
	if pp.StockQuantity != nil {
		p.StockQuantity = *pp.StockQuantity
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.Brand != nil {
		p.Brand = *pp.Brand
	}
	if pp.ImageURLs != nil {
		p.ImageURLs = append([]string(nil), pp.ImageURLs...)
	}
	if pp.Active != nil {
		p.Active = *pp.Active
	}
	return p
}
