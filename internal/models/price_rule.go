package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceRule overrides a product's base price for a customer group, a
// quantity tier and an optional validity window.
type PriceRule struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"productId"`
	Price         decimal.Decimal `json:"price"`
	PriceType     string          `json:"priceType"`
	CustomerGroup *string         `json:"customerGroup,omitempty"`
	MinQuantity   int             `json:"minQuantity"`
	ValidFrom     *time.Time      `json:"validFrom,omitempty"`
	ValidTo       *time.Time      `json:"validTo,omitempty"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ValidAt reports whether now lies inside the rule's optional window.
func (r PriceRule) ValidAt(now time.Time) bool {
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return false
	}
	return true
}

// PriceRulePatch carries a partial rule update. Nil fields are left untouched.
// An empty CustomerGroup string clears the group scope.
type PriceRulePatch struct {
	Price         *decimal.Decimal `json:"price,omitempty"`
	PriceType     *string          `json:"priceType,omitempty"`
	CustomerGroup *string          `json:"customerGroup,omitempty"`
	MinQuantity   *int             `json:"minQuantity,omitempty" validate:"omitempty,min=1"`
	ValidFrom     *time.Time       `json:"validFrom,omitempty"`
	ValidTo       *time.Time       `json:"validTo,omitempty"`
	Active        *bool            `json:"active,omitempty"`
}

// Apply returns a copy of r with every non-nil patch field written over it.
func (rp PriceRulePatch) Apply(r PriceRule) PriceRule {
	if rp.Price != nil {
		r.Price = *rp.Price
	}
	if rp.PriceType != nil {
		r.PriceType = *rp.PriceType
	}
	if rp.CustomerGroup != nil {
		if *rp.CustomerGroup == "" {
			r.CustomerGroup = nil
		} else {
			group := *rp.CustomerGroup
			r.CustomerGroup = &group
		}
	}
	if rp.MinQuantity != nil {
		r.MinQuantity = *rp.MinQuantity
	}
	if rp.ValidFrom != nil {
		from := *rp.ValidFrom
		r.ValidFrom = &from
	}
	if rp.ValidTo != nil {
		to := *rp.ValidTo
		r.ValidTo = &to
	}
	if rp.Active != nil {
		r.Active = *rp.Active
	}
	return r
}
