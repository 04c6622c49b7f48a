package promotion_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/models"
	"github.com/noah-isme/toko-tenant-cart/internal/promotion"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func basePromotion() *models.Promotion {
	return &models.Promotion{
		Code:          "TEN",
		DiscountType:  models.Percentage,
		DiscountValue: dec("10"),
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidTo:       now.Add(24 * time.Hour),
		Active:        true,
	}
}

func TestCalculateClampsToMaxDiscount(t *testing.T) {
	p := basePromotion()
	p.MaxDiscountAmount = decimal.NewNullDecimal(dec("20"))

	require.True(t, promotion.Calculate(p, dec("300"), now).Equal(dec("20")))
	require.True(t, promotion.Calculate(p, dec("150"), now).Equal(dec("15")))
}

func TestCalculateByType(t *testing.T) {
	p := basePromotion()
	require.True(t, promotion.Calculate(p, dec("99.90"), now).Equal(dec("9.99")))

	p.DiscountType = models.FixedAmount
	p.DiscountValue = dec("25")
	require.True(t, promotion.Calculate(p, dec("10"), now).Equal(dec("25")))

	p.DiscountType = models.BuyXGetY
	p.DiscountValue = dec("7.50")
	require.True(t, promotion.Calculate(p, dec("10"), now).Equal(dec("7.50")))

	p.DiscountType = models.FixedAmount
	p.DiscountValue = dec("25")
	p.MaxDiscountAmount = decimal.NewNullDecimal(dec("5"))
	require.True(t, promotion.Calculate(p, dec("10"), now).Equal(dec("5")))
}

func TestCalculateZeroConditions(t *testing.T) {
	limit := 3
	cases := []struct {
		name   string
		mutate func(p *models.Promotion)
		amount string
		want   error
	}{
		{name: "inactive", mutate: func(p *models.Promotion) { p.Active = false }, amount: "100", want: promotion.ErrInactive},
		{name: "not started", mutate: func(p *models.Promotion) { p.ValidFrom = now.Add(time.Minute) }, amount: "100", want: promotion.ErrOutsideWindow},
		{name: "expired", mutate: func(p *models.Promotion) { p.ValidTo = now.Add(-time.Minute) }, amount: "100", want: promotion.ErrOutsideWindow},
		{name: "below minimum", mutate: func(p *models.Promotion) { p.MinOrderAmount = decimal.NewNullDecimal(dec("50")) }, amount: "49.99", want: promotion.ErrBelowMinimum},
		{name: "usage exhausted", mutate: func(p *models.Promotion) { p.UsageLimit = &limit; p.UsageCount = 3 }, amount: "100", want: promotion.ErrUsageExhausted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := basePromotion()
			tc.mutate(p)
			require.ErrorIs(t, promotion.Check(p, dec(tc.amount), now), tc.want)
			require.True(t, promotion.Calculate(p, dec(tc.amount), now).IsZero())
		})
	}

	require.True(t, promotion.Calculate(nil, dec("100"), now).IsZero())
}

func TestCalculateWindowBoundsInclusive(t *testing.T) {
	p := basePromotion()
	require.False(t, promotion.Calculate(p, dec("100"), p.ValidFrom).IsZero())
	require.False(t, promotion.Calculate(p, dec("100"), p.ValidTo).IsZero())

	p.MinOrderAmount = decimal.NewNullDecimal(dec("100"))
	require.True(t, promotion.Calculate(p, dec("100"), now).Equal(dec("10")))
}
