package tenantservices_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	tenantservices "github.com/noah-isme/toko-tenant-cart/internal/services/tenant"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

func TestTenantHandlers(t *testing.T) {
	reg := tenant.NewRegistry("tenant1", "tenant2")
	resolver := tenant.NewResolver("", "", "")

	r := chi.NewRouter()
	r.Use(resolver.Middleware)
	r.Route("/api/tenants", (&tenantservices.Handler{Registry: reg}).Register)

	do := func(method, target string, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		if header != "" {
			req.Header.Set("X-Tenant-ID", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/api/tenants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":["default","tenant1","tenant2"]}`, rec.Body.String())

	rec = do(http.MethodGet, "/api/tenants/current", "tenant2")
	require.JSONEq(t, `{"data":{"tenantId":"tenant2","registered":true}}`, rec.Body.String())

	rec = do(http.MethodGet, "/tenant/tenant1/api/tenants/current", "")
	require.JSONEq(t, `{"data":{"tenantId":"tenant1","registered":true}}`, rec.Body.String())

	rec = do(http.MethodPost, "/api/tenants/tenant1/validate", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(http.MethodPost, "/api/tenants/ghost/validate", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
