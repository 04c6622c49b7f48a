package middleware

import (
	"net/http"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// TenantChecker reports whether a tenant id is registered.
type TenantChecker interface {
	IsValid(id string) bool
}

// RequireRegistered rejects requests whose resolved tenant is not registered,
// instead of letting data routing fall back to the default partition.
func RequireRegistered(reg TenantChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := tenant.OrDefault(r.Context())
			if !reg.IsValid(id) {
				common.JSONError(w, http.StatusBadRequest, "TENANT_UNKNOWN", "unknown tenant", map[string]any{"tenant": id})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
