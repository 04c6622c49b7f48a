package tenant_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

func TestResolvePrecedence(t *testing.T) {
	resolver := tenant.NewResolver("", "", "")

	cases := []struct {
		name   string
		host   string
		path   string
		header string
		want   string
	}{
		{name: "header wins", host: "tenant2.shop.example.com", path: "/tenant/tenant3/api/cart", header: "tenant1", want: "tenant1"},
		{name: "subdomain", host: "tenant2.shop.example.com", path: "/api/cart", want: "tenant2"},
		{name: "www ignored", host: "www.shop.example.com", path: "/api/cart", want: "default"},
		{name: "two labels ignored", host: "example.com", path: "/api/cart", want: "default"},
		{name: "ip ignored", host: "10.0.0.1:8080", path: "/api/cart", want: "default"},
		{name: "path prefix", host: "localhost:8080", path: "/tenant/tenant3/api/cart", want: "tenant3"},
		{name: "blank header falls through", host: "localhost", path: "/api/cart", header: "   ", want: "default"},
		{name: "nothing", host: "localhost", path: "/", want: "default"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://"+tc.host+tc.path, nil)
			req.Host = tc.host
			if tc.header != "" {
				req.Header.Set("X-Tenant-ID", tc.header)
			}
			require.Equal(t, tc.want, resolver.Resolve(req))
		})
	}
}

func TestResolveWithRootDomain(t *testing.T) {
	resolver := tenant.NewResolver("X-Tenant", "localhost", "default")

	req := httptest.NewRequest(http.MethodGet, "http://acme.localhost/api/products", nil)
	req.Host = "acme.localhost:8080"
	require.Equal(t, "acme", resolver.Resolve(req))

	req.Host = "localhost:8080"
	require.Equal(t, "default", resolver.Resolve(req))

	req.Host = "acme.other.dev"
	require.Equal(t, "default", resolver.Resolve(req))
}

func TestMiddlewareStripsTenantPath(t *testing.T) {
	resolver := tenant.NewResolver("", "", "")

	var gotTenant, gotPath string
	handler := resolver.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = tenant.OrDefault(r.Context())
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/tenant/tenant2/api/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "tenant2", gotTenant)
	require.Equal(t, "/api/products", gotPath)

	req = httptest.NewRequest(http.MethodGet, "/tenant/tenant2", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "/", gotPath)
}
