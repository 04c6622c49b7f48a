// Package memrepo is an in-memory implementation of the repo stores. Each
// tenant partition is a separate DB selected through the same router the
// Postgres stores use.
package memrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/dbrouter"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
)

// DB is one partition.
type DB struct {
	mu         sync.Mutex
	seq        int64
	order      map[uuid.UUID]int64
	products   map[uuid.UUID]models.Product
	rules      map[uuid.UUID]models.PriceRule
	promotions map[uuid.UUID]models.Promotion
	carts      map[uuid.UUID]models.Cart
	Now        func() time.Time
}

// NewDB returns an empty partition.
func NewDB() *DB {
	return &DB{
		order:      map[uuid.UUID]int64{},
		products:   map[uuid.UUID]models.Product{},
		rules:      map[uuid.UUID]models.PriceRule{},
		promotions: map[uuid.UUID]models.Promotion{},
		carts:      map[uuid.UUID]models.Cart{},
	}
}

// NewRouter returns a router with a fresh partition for the default tenant and each named tenant.
func NewRouter(tenants ...string) *dbrouter.Router[*DB] {
	r := dbrouter.New(NewDB(), zerolog.Nop())
	for _, id := range tenants {
		r.Register(id, NewDB())
	}
	return r
}

// Stores bundles every store over one router.
type Stores struct {
	Products   Products
	PriceRules PriceRules
	Promotions Promotions
	Carts      Carts
}

// NewStores builds the stores over r.
func NewStores(r *dbrouter.Router[*DB]) Stores {
	return Stores{
		Products:   Products{Router: r},
		PriceRules: PriceRules{Router: r},
		Promotions: Promotions{Router: r},
		Carts:      Carts{Router: r},
	}
}

func (db *DB) now() time.Time {
	if db.Now != nil {
		return db.Now()
	}
	return time.Now()
}

func (db *DB) stamp(id uuid.UUID) {
	if _, ok := db.order[id]; !ok {
		db.seq++
		db.order[id] = db.seq
	}
}

func (db *DB) sortByOrder(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return db.order[ids[i]] < db.order[ids[j]] })
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, common.ErrNotFound)
}

func duplicate(what string) error {
	return fmt.Errorf("%s already exists: %w", what, common.ErrBusinessRule)
}

// Products is the in-memory product store.
type Products struct {
	Router *dbrouter.Router[*DB]
}

func (s Products) filter(ctx context.Context, keep func(models.Product) bool) []models.Product {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []models.Product{}
	for _, p := range db.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func page(items []models.Product, limit, offset int) []models.Product {
	if offset >= len(items) {
		return []models.Product{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// Get loads a product by id.
func (s Products) Get(ctx context.Context, id uuid.UUID) (models.Product, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.products[id]
	if !ok {
		return models.Product{}, notFound("product")
	}
	return p, nil
}

// GetBySKU loads a product by SKU.
func (s Products) GetBySKU(ctx context.Context, sku string) (models.Product, error) {
	matches := s.filter(ctx, func(p models.Product) bool { return p.SKU == sku })
	if len(matches) == 0 {
		return models.Product{}, notFound("product")
	}
	return matches[0], nil
}

// ListActive returns a page of active products and the active total.
func (s Products) ListActive(ctx context.Context, limit, offset int) ([]models.Product, int64, error) {
	all := s.filter(ctx, func(p models.Product) bool { return p.Active })
	return page(all, limit, offset), int64(len(all)), nil
}

// ListAll returns every product.
func (s Products) ListAll(ctx context.Context) ([]models.Product, error) {
	return s.filter(ctx, func(models.Product) bool { return true }), nil
}

// ListByCategory returns active products in category.
func (s Products) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return s.filter(ctx, func(p models.Product) bool { return p.Active && p.Category == category }), nil
}

// ListByBrand returns active products of brand.
func (s Products) ListByBrand(ctx context.Context, brand string) ([]models.Product, error) {
	return s.filter(ctx, func(p models.Product) bool { return p.Active && p.Brand == brand }), nil
}

// ListInStock returns active products with stock left.
func (s Products) ListInStock(ctx context.Context) ([]models.Product, error) {
	return s.filter(ctx, func(p models.Product) bool { return p.Active && p.StockQuantity > 0 }), nil
}

// Search matches term case-insensitively against name, description and category.
func (s Products) Search(ctx context.Context, term string, limit, offset int) ([]models.Product, int64, error) {
	needle := strings.ToLower(term)
	all := s.filter(ctx, func(p models.Product) bool {
		if !p.Active {
			return false
		}
		for _, field := range []string{p.Name, p.Description, p.Category} {
			if strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
		return false
	})
	return page(all, limit, offset), int64(len(all)), nil
}

// Create inserts p.
func (s Products) Create(ctx context.Context, p models.Product) (models.Product, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, existing := range db.products {
		if existing.SKU == p.SKU {
			return models.Product{}, duplicate("product")
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	p.CreatedAt, p.UpdatedAt = db.now(), db.now()
	db.products[p.ID] = p
	db.stamp(p.ID)
	return p, nil
}

// Update overwrites p.
func (s Products) Update(ctx context.Context, p models.Product) (models.Product, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	existing, ok := db.products[p.ID]
	if !ok {
		return models.Product{}, notFound("product")
	}
	p.SKU, p.CreatedAt, p.UpdatedAt = existing.SKU, existing.CreatedAt, db.now()
	db.products[p.ID] = p
	return p, nil
}

// Delete removes a product and its price rules.
func (s Products) Delete(ctx context.Context, id uuid.UUID) error {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.products[id]; !ok {
		return notFound("product")
	}
	delete(db.products, id)
	for rid, r := range db.rules {
		if r.ProductID == id {
			delete(db.rules, rid)
		}
	}
	return nil
}

// PriceRules is the in-memory price rule store.
type PriceRules struct {
	Router *dbrouter.Router[*DB]
}

func (s PriceRules) filter(ctx context.Context, keep func(models.PriceRule) bool) []models.PriceRule {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(db.rules))
	for id, r := range db.rules {
		if keep(r) {
			ids = append(ids, id)
		}
	}
	db.sortByOrder(ids)
	out := make([]models.PriceRule, 0, len(ids))
	for _, id := range ids {
		out = append(out, db.rules[id])
	}
	return out
}

// Get loads a rule by id.
func (s PriceRules) Get(ctx context.Context, id uuid.UUID) (models.PriceRule, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	r, ok := db.rules[id]
	if !ok {
		return models.PriceRule{}, notFound("price rule")
	}
	return r, nil
}

// ActiveForProduct returns the active rules of productID in creation order.
func (s PriceRules) ActiveForProduct(ctx context.Context, productID uuid.UUID) ([]models.PriceRule, error) {
	return s.filter(ctx, func(r models.PriceRule) bool { return r.ProductID == productID && r.Active }), nil
}

// ListByType returns rules classified as priceType.
func (s PriceRules) ListByType(ctx context.Context, priceType string) ([]models.PriceRule, error) {
	return s.filter(ctx, func(r models.PriceRule) bool { return r.PriceType == priceType }), nil
}

// Create inserts r. The product must exist in the same partition.
func (s PriceRules) Create(ctx context.Context, r models.PriceRule) (models.PriceRule, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.products[r.ProductID]; !ok {
		return models.PriceRule{}, notFound("product")
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt, r.UpdatedAt = db.now(), db.now()
	db.rules[r.ID] = r
	db.stamp(r.ID)
	return r, nil
}

// Update overwrites r.
func (s PriceRules) Update(ctx context.Context, r models.PriceRule) (models.PriceRule, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	existing, ok := db.rules[r.ID]
	if !ok {
		return models.PriceRule{}, notFound("price rule")
	}
	r.ProductID, r.CreatedAt, r.UpdatedAt = existing.ProductID, existing.CreatedAt, db.now()
	db.rules[r.ID] = r
	return r, nil
}

// Delete removes a rule.
func (s PriceRules) Delete(ctx context.Context, id uuid.UUID) error {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.rules[id]; !ok {
		return notFound("price rule")
	}
	delete(db.rules, id)
	return nil
}

// Promotions is the in-memory promotion store.
type Promotions struct {
	Router *dbrouter.Router[*DB]
}

func (s Promotions) filter(ctx context.Context, keep func(models.Promotion) bool) []models.Promotion {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(db.promotions))
	for id, p := range db.promotions {
		if keep(p) {
			ids = append(ids, id)
		}
	}
	db.sortByOrder(ids)
	out := make([]models.Promotion, 0, len(ids))
	for _, id := range ids {
		out = append(out, db.promotions[id])
	}
	return out
}

// Get loads a promotion by id.
func (s Promotions) Get(ctx context.Context, id uuid.UUID) (models.Promotion, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.promotions[id]
	if !ok {
		return models.Promotion{}, notFound("promotion")
	}
	return p, nil
}

// GetByCode loads a promotion by code.
func (s Promotions) GetByCode(ctx context.Context, code string) (models.Promotion, error) {
	matches := s.filter(ctx, func(p models.Promotion) bool { return p.Code == code })
	if len(matches) == 0 {
		return models.Promotion{}, notFound("promotion")
	}
	return matches[0], nil
}

// List returns every promotion.
func (s Promotions) List(ctx context.Context) ([]models.Promotion, error) {
	return s.filter(ctx, func(models.Promotion) bool { return true }), nil
}

// ListActive returns enabled promotions whose window contains now.
func (s Promotions) ListActive(ctx context.Context, now time.Time) ([]models.Promotion, error) {
	return s.filter(ctx, func(p models.Promotion) bool { return p.Active && p.ValidAt(now) }), nil
}

// Create inserts p.
func (s Promotions) Create(ctx context.Context, p models.Promotion) (models.Promotion, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, existing := range db.promotions {
		if existing.Code == p.Code {
			return models.Promotion{}, duplicate("promotion")
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt, p.UpdatedAt = db.now(), db.now()
	db.promotions[p.ID] = p
	db.stamp(p.ID)
	return p, nil
}

// Update overwrites p, including its usage count.
func (s Promotions) Update(ctx context.Context, p models.Promotion) (models.Promotion, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	existing, ok := db.promotions[p.ID]
	if !ok {
		return models.Promotion{}, notFound("promotion")
	}
	for id, other := range db.promotions {
		if id != p.ID && other.Code == p.Code {
			return models.Promotion{}, duplicate("promotion")
		}
	}
	p.CreatedAt, p.UpdatedAt = existing.CreatedAt, db.now()
	db.promotions[p.ID] = p
	return p, nil
}

// Delete removes a promotion and detaches it from carts.
func (s Promotions) Delete(ctx context.Context, id uuid.UUID) error {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.promotions[id]; !ok {
		return notFound("promotion")
	}
	delete(db.promotions, id)
	for cid, c := range db.carts {
		if c.PromotionID != nil && *c.PromotionID == id {
			c.PromotionID, c.PromotionCode = nil, ""
			db.carts[cid] = c
		}
	}
	return nil
}

// Carts is the in-memory cart store.
type Carts struct {
	Router *dbrouter.Router[*DB]
}

func (s Carts) find(ctx context.Context, match func(models.Cart) bool) (models.Cart, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, c := range db.carts {
		if match(c) {
			if c.PromotionID != nil {
				c.PromotionCode = db.promotions[*c.PromotionID].Code
			}
			return c.Clone(), nil
		}
	}
	return models.Cart{}, notFound("cart")
}

// GetBySession loads the cart owned by sessionID.
func (s Carts) GetBySession(ctx context.Context, sessionID string) (models.Cart, error) {
	return s.find(ctx, func(c models.Cart) bool { return c.SessionID != "" && c.SessionID == sessionID })
}

// GetByUser loads the cart owned by userID.
func (s Carts) GetByUser(ctx context.Context, userID string) (models.Cart, error) {
	return s.find(ctx, func(c models.Cart) bool { return c.UserID != "" && c.UserID == userID })
}

// Save stores c, replacing any previous version.
func (s Carts) Save(ctx context.Context, c models.Cart) (models.Cart, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	for id, other := range db.carts {
		if id == c.ID {
			continue
		}
		if (c.SessionID != "" && other.SessionID == c.SessionID) || (c.UserID != "" && other.UserID == c.UserID) {
			return models.Cart{}, duplicate("cart")
		}
	}
	if existing, ok := db.carts[c.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	} else {
		c.CreatedAt = db.now()
	}
	c.UpdatedAt = db.now()
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	db.carts[c.ID] = c.Clone()
	return c, nil
}

// DeleteOlderThan removes carts last modified before cutoff.
func (s Carts) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	var n int64
	for id, c := range db.carts {
		if c.UpdatedAt.Before(cutoff) {
			delete(db.carts, id)
			n++
		}
	}
	return n, nil
}

// Touch overrides the last modified time of the cart owned by sessionID.
func (s Carts) Touch(ctx context.Context, sessionID string, at time.Time) error {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	for id, c := range db.carts {
		if c.SessionID == sessionID {
			c.UpdatedAt = at
			db.carts[id] = c
			return nil
		}
	}
	return notFound("cart")
}

// Count returns the number of carts in the partition selected by ctx.
func (s Carts) Count(ctx context.Context) int {
	db := s.Router.For(ctx)
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.carts)
}
