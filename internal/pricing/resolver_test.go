package pricing_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
	"github.com/noah-isme/toko-tenant-cart/internal/pricing"
)

type fakeProducts map[uuid.UUID]models.Product

func (f fakeProducts) Get(_ context.Context, id uuid.UUID) (models.Product, error) {
	p, ok := f[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %s: %w", id, common.ErrNotFound)
	}
	return p, nil
}

type fakeRules struct {
	rules []models.PriceRule
	calls int
}

func (f *fakeRules) ActiveForProduct(_ context.Context, productID uuid.UUID) ([]models.PriceRule, error) {
	f.calls++
	var out []models.PriceRule
	for _, r := range f.rules {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestEffectivePrice(t *testing.T) {
	product := models.Product{ID: uuid.New(), BasePrice: decimal.NewFromInt(100), Active: true}
	vip := rule(strPtr("VIP"), 5, 80)
	vip.ProductID = product.ID
	generic := rule(nil, 1, 90)
	generic.ProductID = product.ID

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rules := &fakeRules{rules: []models.PriceRule{vip, generic}}
	resolver := &pricing.Resolver{
		Products: fakeProducts{product.ID: product},
		Rules:    rules,
		Now:      func() time.Time { return now },
	}
	ctx := context.Background()

	price, err := resolver.EffectivePrice(ctx, product.ID, strPtr("VIP"), 5)
	require.NoError(t, err)
	require.Equal(t, "80", price.String())

	blank, err := resolver.EffectivePrice(ctx, product.ID, strPtr("  "), 5)
	require.NoError(t, err)
	require.True(t, blank.Equal(decimal.NewFromInt(80)), "blank group prices like no group, got %s", blank)

	price, err = resolver.EffectivePrice(ctx, product.ID, nil, 1)
	require.NoError(t, err)
	require.Equal(t, "90", price.String())

	price, err = resolver.EffectivePrice(ctx, product.ID, strPtr("VIP"), 1)
	require.NoError(t, err)
	require.Equal(t, "90", price.String())

	rules.rules = nil
	price, err = resolver.EffectivePrice(ctx, product.ID, nil, 1)
	require.NoError(t, err)
	require.Equal(t, "100", price.String())

	_, err = resolver.EffectivePrice(ctx, uuid.New(), nil, 1)
	require.ErrorIs(t, err, common.ErrNotFound)
}
