// Package catalog manages the tenant's products.
package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
	"github.com/noah-isme/toko-tenant-cart/internal/obs"
)

// Store persists products in the routed partition.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (models.Product, error)
	GetBySKU(ctx context.Context, sku string) (models.Product, error)
	ListActive(ctx context.Context, limit, offset int) ([]models.Product, int64, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	ListByBrand(ctx context.Context, brand string) ([]models.Product, error)
	ListInStock(ctx context.Context) ([]models.Product, error)
	Search(ctx context.Context, term string, limit, offset int) ([]models.Product, int64, error)
	Create(ctx context.Context, p models.Product) (models.Product, error)
	Update(ctx context.Context, p models.Product) (models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service orchestrates product queries, mutations and caching.
type Service struct {
	store        Store
	cache        *Cache
	defaultLimit int
	logger       zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        Store
	Cache        *Cache
	DefaultLimit int
	Logger       *zerolog.Logger
}

// Page is one page of products.
type Page struct {
	Items []models.Product
	Total int64
	common.Pagination
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = 20
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, defaultLimit: limit, logger: logger}
}

// DefaultLimit is the page size used when the client sends none.
func (s *Service) DefaultLimit() int { return s.defaultLimit }

// ListActive returns a page of active products.
func (s *Service) ListActive(ctx context.Context, p common.Pagination) (Page, error) {
	items, total, err := s.store.ListActive(ctx, p.PerPage, p.Offset())
	if err != nil {
		return Page{}, err
	}
	p = p.WithTotal(total)
	return Page{Items: items, Total: total, Pagination: p}, nil
}

// ListAll returns every product including inactive ones.
func (s *Service) ListAll(ctx context.Context) ([]models.Product, error) {
	return s.store.ListAll(ctx)
}

// Get loads a product by id, consulting the tenant's cache first.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Product, error) {
	cached, ok, err := s.cache.Product(ctx, id)
	if err != nil {
		s.log(ctx).Warn().Err(err).Stringer("product", id).Msg("product cache read failed")
	}
	if ok {
		return cached, nil
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if err := s.cache.Put(ctx, p); err != nil {
		s.log(ctx).Warn().Err(err).Stringer("product", id).Msg("product cache write failed")
	}
	return p, nil
}

// GetBySKU loads a product by its tenant-unique SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (models.Product, error) {
	return s.store.GetBySKU(ctx, strings.TrimSpace(sku))
}

// ByCategory lists active products in category.
func (s *Service) ByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return s.store.ListByCategory(ctx, category)
}

// ByBrand lists active products of brand.
func (s *Service) ByBrand(ctx context.Context, brand string) ([]models.Product, error) {
	return s.store.ListByBrand(ctx, brand)
}

// InStock lists active products with stock left.
func (s *Service) InStock(ctx context.Context) ([]models.Product, error) {
	return s.store.ListInStock(ctx)
}

// Search returns a page of active products matching term.
func (s *Service) Search(ctx context.Context, term string, p common.Pagination) (Page, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return Page{}, common.BadRequest("q", "q is required", nil)
	}
	items, total, err := s.store.Search(ctx, term, p.PerPage, p.Offset())
	if err != nil {
		return Page{}, err
	}
	p = p.WithTotal(total)
	return Page{Items: items, Total: total, Pagination: p}, nil
}

// Create stores a new product.
func (s *Service) Create(ctx context.Context, p models.Product) (models.Product, error) {
	p.SKU = strings.TrimSpace(p.SKU)
	if err := checkProduct(p); err != nil {
		return models.Product{}, err
	}
	created, err := s.store.Create(ctx, p)
	if err != nil {
		return models.Product{}, err
	}
	s.log(ctx).Info().Str("product_id", created.ID.String()).Str("sku", created.SKU).Msg("product created")
	return created, nil
}

// Update merges patch into the product identified by id.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch models.ProductPatch) (models.Product, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	next := patch.Apply(current)
	if err := checkProduct(next); err != nil {
		return models.Product{}, err
	}
	updated, err := s.store.Update(ctx, next)
	if err != nil {
		return models.Product{}, err
	}
	s.invalidate(ctx, id)
	s.log(ctx).Info().Str("product_id", id.String()).Msg("product updated")
	return updated, nil
}

// Delete removes a product permanently. Deactivate is preferred.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log(ctx).Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// Deactivate hides a product from listings and carts while keeping references intact.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	inactive := false
	_, err := s.Update(ctx, id, models.ProductPatch{Active: &inactive})
	return err
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Forget(ctx, id); err != nil {
		s.log(ctx).Warn().Err(err).Stringer("product", id).Msg("product cache invalidation failed")
	}
}

func (s *Service) log(ctx context.Context) *zerolog.Logger {
	logger := obs.WithTenant(ctx, s.logger)
	return &logger
}

func checkProduct(p models.Product) error {
	switch {
	case p.SKU == "":
		return common.BadRequest("sku", "sku is required", nil)
	case strings.TrimSpace(p.Name) == "":
		return common.BadRequest("name", "name is required", nil)
	case p.BasePrice.IsNegative():
		return common.BadRequest("basePrice", "basePrice must not be negative", nil)
	case p.StockQuantity < 0:
		return common.BadRequest("stockQuantity", "stockQuantity must not be negative", nil)
	}
	return nil
}
