package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-tenant-cart/internal/models"
)

// SelectRule returns the effective rule among rules for the given customer
// group and quantity at now, or nil when none qualifies.
//
// A rule qualifies when it is active, now lies in its validity window, its
// minimum quantity is at most qty, and either side of the group comparison is
// unset or both are equal. Group-specific rules outrank generic ones, then the
// highest minimum quantity wins. Ties keep input order.
func SelectRule(rules []models.PriceRule, group *string, qty int, now time.Time) *models.PriceRule {
	candidates := make([]models.PriceRule, 0, len(rules))
	for _, r := range rules {
		if !r.Active || !r.ValidAt(now) || r.MinQuantity > qty {
			continue
		}
		if group != nil && r.CustomerGroup != nil && *group != *r.CustomerGroup {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		gi, gj := candidates[i].CustomerGroup != nil, candidates[j].CustomerGroup != nil
		if gi != gj {
			return gi
		}
		return candidates[i].MinQuantity > candidates[j].MinQuantity
	})
	best := candidates[0]
	return &best
}

// Summary aggregates the derived monetary fields of a cart.
type Summary struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Subtotal sums the line totals of items.
func Subtotal(items []models.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal)
	}
	return subtotal
}

// Compute builds the summary for items with the given discount.
func Compute(items []models.CartItem, discount decimal.Decimal) Summary {
	subtotal := Subtotal(items)
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}
}
