// Package promotion evaluates and manages code-activated cart discounts.
package promotion

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-tenant-cart/internal/models"
)

var (
	// ErrMissing is reported when no promotion is supplied.
	ErrMissing = errors.New("promotion missing")
	// ErrInactive is reported for a promotion with its active flag cleared.
	ErrInactive = errors.New("promotion inactive")
	// ErrOutsideWindow is reported when now lies outside [validFrom, validTo].
	ErrOutsideWindow = errors.New("promotion outside validity window")
	// ErrBelowMinimum is reported when the order amount is under the minimum order amount.
	ErrBelowMinimum = errors.New("promotion minimum order amount not met")
	// ErrUsageExhausted is reported when the usage count reached the usage limit.
	ErrUsageExhausted = errors.New("promotion usage limit reached")
)

var hundred = decimal.NewFromInt(100)

// Check reports why p cannot discount amount at now, or nil when it can.
func Check(p *models.Promotion, amount decimal.Decimal, now time.Time) error {
	if p == nil {
		return ErrMissing
	}
	if !p.Active {
		return ErrInactive
	}
	if !p.ValidAt(now) {
		return ErrOutsideWindow
	}
	if p.MinOrderAmount.Valid && amount.LessThan(p.MinOrderAmount.Decimal) {
		return ErrBelowMinimum
	}
	if p.UsageExhausted() {
		return ErrUsageExhausted
	}
	return nil
}

// Calculate returns the discount p grants on amount at now. Ineligible
// promotions yield zero rather than an error.
func Calculate(p *models.Promotion, amount decimal.Decimal, now time.Time) decimal.Decimal {
	if Check(p, amount, now) != nil {
		return decimal.Zero
	}
	discount := raw(p, amount)
	if p.MaxDiscountAmount.Valid && discount.GreaterThan(p.MaxDiscountAmount.Decimal) {
		return p.MaxDiscountAmount.Decimal
	}
	return discount
}

// raw computes the uncapped discount. Fixed amounts are not bounded by amount.
func raw(p *models.Promotion, amount decimal.Decimal) decimal.Decimal {
	switch p.DiscountType {
	case models.Percentage:
		return amount.Mul(p.DiscountValue).Div(hundred)
	case models.FixedAmount:
		return p.DiscountValue
	case models.BuyXGetY:
		// Treated as a fixed amount until quantity-aware rules exist.
		return p.DiscountValue
	default:
		return decimal.Zero
	}
}

// Reason maps a Check error onto a short metric label.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissing):
		return "missing"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrOutsideWindow):
		return "outside_window"
	case errors.Is(err, ErrBelowMinimum):
		return "below_minimum"
	case errors.Is(err, ErrUsageExhausted):
		return "usage_exhausted"
	default:
		return "other"
	}
}
