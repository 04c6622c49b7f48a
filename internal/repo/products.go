package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-tenant-cart/internal/models"
)

const productColumns = `id, sku, name, description, base_price, stock_quantity, category, brand, active, image_urls, created_at, updated_at`

// Products stores catalog entries.
type Products struct {
	Router Router
}

func scanProduct(row scanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.BasePrice, &p.StockQuantity,
		&p.Category, &p.Brand, &p.Active, &p.ImageURLs, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s Products) list(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := s.Router.For(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "list products")
	}
	defer rows.Close()
	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapErr(err, "scan product")
		}
		out = append(out, p)
	}
	return out, mapErr(rows.Err(), "list products")
}

// Get loads a product by id.
func (s Products) Get(ctx context.Context, id uuid.UUID) (models.Product, error) {
	row := s.Router.For(ctx).QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	return p, mapErr(err, "product")
}

// GetBySKU loads a product by SKU.
func (s Products) GetBySKU(ctx context.Context, sku string) (models.Product, error) {
	row := s.Router.For(ctx).QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
	p, err := scanProduct(row)
	return p, mapErr(err, "product")
}

// ListActive returns a page of active products and the total number of active products.
func (s Products) ListActive(ctx context.Context, limit, offset int) ([]models.Product, int64, error) {
	var total int64
	db := s.Router.For(ctx)
	if err := db.QueryRow(ctx, `SELECT count(*) FROM products WHERE active`).Scan(&total); err != nil {
		return nil, 0, mapErr(err, "count products")
	}
	items, err := s.list(ctx, `SELECT `+productColumns+` FROM products WHERE active ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	return items, total, err
}

// ListAll returns every product, active or not.
func (s Products) ListAll(ctx context.Context) ([]models.Product, error) {
	return s.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
}

// ListByCategory returns active products in category.
func (s Products) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return s.list(ctx, `SELECT `+productColumns+` FROM products WHERE active AND category = $1 ORDER BY name, id`, category)
}

// ListByBrand returns active products of brand.
func (s Products) ListByBrand(ctx context.Context, brand string) ([]models.Product, error) {
	return s.list(ctx, `SELECT `+productColumns+` FROM products WHERE active AND brand = $1 ORDER BY name, id`, brand)
}

// ListInStock returns active products with stock left.
func (s Products) ListInStock(ctx context.Context) ([]models.Product, error) {
	return s.list(ctx, `SELECT `+productColumns+` FROM products WHERE active AND stock_quantity > 0 ORDER BY name, id`)
}

// Search matches term case-insensitively against name, description and category of active products.
func (s Products) Search(ctx context.Context, term string, limit, offset int) ([]models.Product, int64, error) {
	const where = ` WHERE active AND (name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%')`
	var total int64
	if err := s.Router.For(ctx).QueryRow(ctx, `SELECT count(*) FROM products`+where, term).Scan(&total); err != nil {
		return nil, 0, mapErr(err, "count products")
	}
	items, err := s.list(ctx, `SELECT `+productColumns+` FROM products`+where+` ORDER BY name, id LIMIT $2 OFFSET $3`, term, limit, offset)
	return items, total, err
}

// Create inserts p, assigning an id when it has none.
func (s Products) Create(ctx context.Context, p models.Product) (models.Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	row := s.Router.For(ctx).QueryRow(ctx, `
		INSERT INTO products (id, sku, name, description, base_price, stock_quantity, category, brand, active, image_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+productColumns,
		p.ID, p.SKU, p.Name, p.Description, p.BasePrice, p.StockQuantity, p.Category, p.Brand, p.Active, p.ImageURLs)
	created, err := scanProduct(row)
	return created, mapErr(err, "product")
}

// Update overwrites every mutable column of p.
func (s Products) Update(ctx context.Context, p models.Product) (models.Product, error) {
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	row := s.Router.For(ctx).QueryRow(ctx, `
		UPDATE products SET name = $2, description = $3, base_price = $4, stock_quantity = $5,
			category = $6, brand = $7, active = $8, image_urls = $9, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.BasePrice, p.StockQuantity, p.Category, p.Brand, p.Active, p.ImageURLs)
	updated, err := scanProduct(row)
	return updated, mapErr(err, "product")
}

// Delete removes a product permanently.
func (s Products) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Router.For(ctx).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "product")
	}
	return notFoundUnlessAffected(tag, "product")
}
