package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/cache"
	"github.com/noah-isme/toko-tenant-cart/internal/catalog"
	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
	"github.com/noah-isme/toko-tenant-cart/internal/repo/memrepo"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

func newService(t *testing.T) (*catalog.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	router := memrepo.NewRouter("tenant1", "tenant2")
	stores := memrepo.NewStores(router)
	svc := catalog.NewService(catalog.ServiceConfig{
		Store: stores.Products,
		Cache: catalog.NewCache(client, time.Minute, router.Partition),
	})
	return svc, mr
}

func laptop(sku string) models.Product {
	return models.Product{
		SKU:           sku,
		Name:          "Sample Laptop",
		BasePrice:     decimal.RequireFromString("999.99"),
		StockQuantity: 50,
		Category:      "Electronics",
		Brand:         "TechBrand",
		Active:        true,
	}
}

func TestTenantsShareSKUWithoutCollision(t *testing.T) {
	svc, _ := newService(t)
	ctx1 := tenant.With(context.Background(), "tenant1")
	ctx2 := tenant.With(context.Background(), "tenant2")

	a, err := svc.Create(ctx1, laptop("SKU-LAPTOP-001"))
	require.NoError(t, err)
	b := laptop("SKU-LAPTOP-001")
	b.BasePrice = decimal.RequireFromString("1099.00")
	_, err = svc.Create(ctx2, b)
	require.NoError(t, err)

	got, err := svc.GetBySKU(ctx1, "SKU-LAPTOP-001")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.True(t, got.BasePrice.Equal(decimal.RequireFromString("999.99")))

	got, err = svc.GetBySKU(ctx2, "SKU-LAPTOP-001")
	require.NoError(t, err)
	require.True(t, got.BasePrice.Equal(decimal.RequireFromString("1099.00")))

	_, err = svc.Get(ctx2, a.ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.Create(ctx1, laptop("SKU-LAPTOP-001"))
	require.ErrorIs(t, err, common.ErrBusinessRule)
}

func TestGetCachesUnderTenantKey(t *testing.T) {
	svc, mr := newService(t)
	ctx := tenant.With(context.Background(), "tenant1")

	p, err := svc.Create(ctx, laptop("SKU-1"))
	require.NoError(t, err)
	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)

	key := cache.KeyProduct("tenant1", p.ID.String())
	require.True(t, strings.HasPrefix(key, "tenant1:"))
	require.True(t, mr.Exists(key))

	name := "Renamed"
	_, err = svc.Update(ctx, p.ID, models.ProductPatch{Name: &name})
	require.NoError(t, err)
	require.False(t, mr.Exists(key))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)
}

func TestCacheFollowsFallbackPartition(t *testing.T) {
	svc, mr := newService(t)
	owner := tenant.With(context.Background(), tenant.DefaultID)
	ghost := tenant.With(context.Background(), "ghost")

	p, err := svc.Create(owner, laptop("SKU-1"))
	require.NoError(t, err)
	_, err = svc.Get(ghost, p.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.KeyProduct(tenant.DefaultID, p.ID.String())))
	require.False(t, mr.Exists(cache.KeyProduct("ghost", p.ID.String())))

	price := decimal.NewFromInt(1)
	stock := 0
	_, err = svc.Update(owner, p.ID, models.ProductPatch{BasePrice: &price, StockQuantity: &stock})
	require.NoError(t, err)

	got, err := svc.Get(ghost, p.ID)
	require.NoError(t, err)
	require.True(t, got.BasePrice.Equal(price))
	require.Zero(t, got.StockQuantity)
}

func TestDeactivateHidesFromActiveListing(t *testing.T) {
	svc, _ := newService(t)
	ctx := tenant.With(context.Background(), "tenant1")

	p, err := svc.Create(ctx, laptop("SKU-1"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, laptop("SKU-2"))
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, p.ID))

	page, err := svc.ListActive(ctx, common.Pagination{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.EqualValues(t, 1, page.Total)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestCreateRejectsInvalidProducts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	bad := laptop("")
	_, err := svc.Create(ctx, bad)
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	bad = laptop("SKU-X")
	bad.BasePrice = decimal.NewFromInt(-1)
	_, err = svc.Create(ctx, bad)
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = svc.Search(ctx, "  ", common.Pagination{Page: 1, PerPage: 10})
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestHandlers(t *testing.T) {
	svc, _ := newService(t)
	ctx := tenant.With(context.Background(), "tenant1")
	created, err := svc.Create(ctx, laptop("SKU-LAPTOP-001"))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api/products", catalog.NewHandler(catalog.HandlerConfig{Service: svc}).Register)

	do := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req = req.WithContext(tenant.With(req.Context(), "tenant1"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("list", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/products?limit=5", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data       []models.Product  `json:"data"`
			Pagination common.Pagination `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, 5, resp.Pagination.PerPage)
		require.Equal(t, 1, resp.Pagination.TotalItems)
	})

	t.Run("by id", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/products/"+created.ID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "SKU-LAPTOP-001")

		rec = do(http.MethodGet, "/api/products/not-a-uuid", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create", func(t *testing.T) {
		rec := do(http.MethodPost, "/api/products", `{"sku":"SKU-MOUSE-001","name":"Wireless Mouse","basePrice":"29.99","stockQuantity":200}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = do(http.MethodPost, "/api/products", `{"sku":"SKU-MOUSE-001","name":"Wireless Mouse","basePrice":"29.99"}`)
		require.Equal(t, http.StatusConflict, rec.Code)

		rec = do(http.MethodPost, "/api/products", `{"name":"No SKU"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("search", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/products/search?q=mouse", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	})

	t.Run("deactivate", func(t *testing.T) {
		rec := do(http.MethodPatch, "/api/products/"+created.ID.String()+"/deactivate", "")
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}
