package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/http/middleware"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, tenantID string) int {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if tenantID != "" {
		req = req.WithContext(tenant.With(req.Context(), tenantID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireRegistered(t *testing.T) {
	h := middleware.RequireRegistered(tenant.NewRegistry("tenant1"))(ok)
	require.Equal(t, http.StatusOK, serve(h, "tenant1"))
	require.Equal(t, http.StatusOK, serve(h, ""))
	require.Equal(t, http.StatusBadRequest, serve(h, "ghost"))
}
