package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
	"github.com/noah-isme/toko-tenant-cart/internal/obs"
)

// RuleStore persists price rules in the routed partition.
type RuleStore interface {
	RuleReader
	Get(ctx context.Context, id uuid.UUID) (models.PriceRule, error)
	ListByType(ctx context.Context, priceType string) ([]models.PriceRule, error)
	Create(ctx context.Context, rule models.PriceRule) (models.PriceRule, error)
	Update(ctx context.Context, rule models.PriceRule) (models.PriceRule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service manages price rules and exposes effective price lookups.
type Service struct {
	Products ProductReader
	Rules    RuleStore
	Resolver *Resolver
	Logger   *zerolog.Logger
}

// NewService wires a rule service and its resolver over the same stores.
func NewService(products ProductReader, rules RuleStore, logger *zerolog.Logger) *Service {
	return &Service{
		Products: products,
		Rules:    rules,
		Resolver: &Resolver{Products: products, Rules: rules, Logger: logger},
		Logger:   logger,
	}
}

// RulesForProduct lists the active rules of productID.
func (s *Service) RulesForProduct(ctx context.Context, productID uuid.UUID) ([]models.PriceRule, error) {
	if _, err := s.Products.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.Rules.ActiveForProduct(ctx, productID)
}

// RulesByType lists rules classified as priceType.
func (s *Service) RulesByType(ctx context.Context, priceType string) ([]models.PriceRule, error) {
	return s.Rules.ListByType(ctx, strings.TrimSpace(priceType))
}

// Create stores a new rule for an existing product.
func (s *Service) Create(ctx context.Context, rule models.PriceRule) (models.PriceRule, error) {
	if rule.ProductID == uuid.Nil {
		return models.PriceRule{}, common.BadRequest("productId", "productId is required", nil)
	}
	if _, err := s.Products.Get(ctx, rule.ProductID); err != nil {
		return models.PriceRule{}, err
	}
	if err := checkRule(rule); err != nil {
		return models.PriceRule{}, err
	}
	created, err := s.Rules.Create(ctx, rule)
	if err != nil {
		return models.PriceRule{}, err
	}
	s.log(ctx).Info().Str("rule_id", created.ID.String()).Str("product_id", created.ProductID.String()).Msg("price rule created")
	return created, nil
}

// Update merges patch into the rule identified by id.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch models.PriceRulePatch) (models.PriceRule, error) {
	current, err := s.Rules.Get(ctx, id)
	if err != nil {
		return models.PriceRule{}, err
	}
	next := patch.Apply(current)
	if err := checkRule(next); err != nil {
		return models.PriceRule{}, err
	}
	updated, err := s.Rules.Update(ctx, next)
	if err != nil {
		return models.PriceRule{}, err
	}
	s.log(ctx).Info().Str("rule_id", id.String()).Msg("price rule updated")
	return updated, nil
}

// Delete removes the rule identified by id.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Rules.Delete(ctx, id); err != nil {
		return err
	}
	s.log(ctx).Info().Str("rule_id", id.String()).Msg("price rule deleted")
	return nil
}

// Deactivate marks the rule inactive so it no longer takes part in ranking.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	inactive := false
	_, err := s.Update(ctx, id, models.PriceRulePatch{Active: &inactive})
	return err
}

func checkRule(rule models.PriceRule) error {
	if rule.Price.IsNegative() {
		return common.BadRequest("price", "price must not be negative", nil)
	}
	if rule.MinQuantity < 1 {
		return common.BadRequest("minQuantity", "minQuantity must be at least 1", nil)
	}
	if rule.ValidFrom != nil && rule.ValidTo != nil && rule.ValidTo.Before(*rule.ValidFrom) {
		return common.BadRequest("validTo", "validTo must not precede validFrom", errors.New("invalid window"))
	}
	return nil
}

func (s *Service) log(ctx context.Context) *zerolog.Logger {
	base := zerolog.Nop()
	if s.Logger != nil {
		base = *s.Logger
	}
	logger := obs.WithTenant(ctx, base)
	return &logger
}

// ErrInvalidQuantity is returned for price lookups with a non-positive quantity.
var ErrInvalidQuantity = fmt.Errorf("quantity must be positive: %w", common.ErrInvalidArgument)
