package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates how a promotion turns its value into a discount.
type DiscountType int

const (
	// Percentage discounts value percent of the order amount.
	Percentage DiscountType = iota + 1
	// FixedAmount discounts value verbatim.
	FixedAmount
	// BuyXGetY discounts value verbatim; quantity-aware buy/get logic is not modelled.
	BuyXGetY
)

var discountTypeNames = map[DiscountType]string{
	Percentage:  "PERCENTAGE",
	FixedAmount: "FIXED_AMOUNT",
	BuyXGetY:    "BUY_X_GET_Y",
}

// String returns the wire name of t.
func (t DiscountType) String() string {
	if name, ok := discountTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DiscountType(%d)", int(t))
}

// ParseDiscountType maps a wire name onto a DiscountType.
func ParseDiscountType(s string) (DiscountType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range discountTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown discount type %q", s)
}

// MarshalJSON encodes the wire name.
func (t DiscountType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the wire name.
func (t *DiscountType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDiscountType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Promotion is a code-activated cart discount.
type Promotion struct {
	ID                   uuid.UUID           `json:"id"`
	Code                 string              `json:"code"`
	Name                 string              `json:"name"`
	Description          string              `json:"description,omitempty"`
	DiscountType         DiscountType        `json:"discountType"`
	DiscountValue        decimal.Decimal     `json:"discountValue"`
	MinOrderAmount       decimal.NullDecimal `json:"minOrderAmount"`
	MaxDiscountAmount    decimal.NullDecimal `json:"maxDiscountAmount"`
	UsageLimit           *int                `json:"usageLimit,omitempty"`
	UsageCount           int                 `json:"usageCount"`
	ValidFrom            time.Time           `json:"validFrom"`
	ValidTo              time.Time           `json:"validTo"`
	ApplicableCategories []string            `json:"applicableCategories"`
	ApplicableProductIDs []uuid.UUID         `json:"applicableProducts"`
	Active               bool                `json:"active"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

// ValidAt reports whether now lies inside [ValidFrom, ValidTo].
func (p Promotion) ValidAt(now time.Time) bool {
	return !now.Before(p.ValidFrom) && !now.After(p.ValidTo)
}

// UsageExhausted reports whether the usage limit, when set, has been reached.
func (p Promotion) UsageExhausted() bool {
	return p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit
}

// AppliesToCategory reports whether the promotion is scoped to category.
// A promotion without categories applies everywhere.
func (p Promotion) AppliesToCategory(category string) bool {
	return len(p.ApplicableCategories) == 0 || slices.Contains(p.ApplicableCategories, category)
}

// PromotionPatch carries a partial promotion update. Nil fields are left untouched.
type PromotionPatch struct {
	Code                 *string          `json:"code,omitempty"`
	Name                 *string          `json:"name,omitempty"`
	Description          *string          `json:"description,omitempty"`
	DiscountType         *DiscountType    `json:"discountType,omitempty"`
	DiscountValue        *decimal.Decimal `json:"discountValue,omitempty"`
	MinOrderAmount       *decimal.Decimal `json:"minOrderAmount,omitempty"`
	MaxDiscountAmount    *decimal.Decimal `json:"maxDiscountAmount,omitempty"`
	UsageLimit           *int             `json:"usageLimit,omitempty" validate:"omitempty,min=0"`
	ValidFrom            *time.Time       `json:"validFrom,omitempty"`
	ValidTo              *time.Time       `json:"validTo,omitempty"`
	ApplicableCategories []string         `json:"applicableCategories,omitempty"`
	ApplicableProductIDs []uuid.UUID      `json:"applicableProducts,omitempty"`
	Active               *bool            `json:"active,omitempty"`
}

// Apply returns a copy of p with every non-nil patch field written over it.
// Usage count is never patched.
func (pp PromotionPatch) Apply(p Promotion) Promotion {
	if pp.Code != nil {
		p.Code = *pp.Code
	}
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.DiscountType != nil {
		p.DiscountType = *pp.DiscountType
	}
	if pp.DiscountValue != nil {
		p.DiscountValue = *pp.DiscountValue
	}
	if pp.MinOrderAmount != nil {
		p.MinOrderAmount = decimal.NewNullDecimal(*pp.MinOrderAmount)
	}
	if pp.MaxDiscountAmount != nil {
		p.MaxDiscountAmount = decimal.NewNullDecimal(*pp.MaxDiscountAmount)
	}
	if pp.UsageLimit != nil {
		limit := *pp.UsageLimit
		p.UsageLimit = &limit
	}
	if pp.ValidFrom != nil {
		p.ValidFrom = *pp.ValidFrom
	}
	if pp.ValidTo != nil {
		p.ValidTo = *pp.ValidTo
	}
	if pp.ApplicableCategories != nil {
		p.ApplicableCategories = append([]string(nil), pp.ApplicableCategories...)
	}
	if pp.ApplicableProductIDs != nil {
		p.ApplicableProductIDs = append([]uuid.UUID(nil), pp.ApplicableProductIDs...)
	}
	if pp.Active != nil {
		p.Active = *pp.Active
	}
	return p
}
