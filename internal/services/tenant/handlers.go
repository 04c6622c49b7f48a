// Package tenantservices exposes tenant registry operations over HTTP.
package tenantservices

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// Handler serves the tenant endpoints.
type Handler struct {
	Registry *tenant.Registry
}

// Register mounts the tenant routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/current", h.Current)
	r.Post("/{id}/validate", h.Validate)
}

// List handles GET /api/tenants.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, h.Registry.List())
}

// Current handles GET /api/tenants/current.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	id := tenant.OrDefault(r.Context())
	common.Data(w, http.StatusOK, map[string]any{
		"tenantId":   id,
		"registered": h.Registry.IsValid(id),
	})
}

// Validate handles POST /api/tenants/{id}/validate.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.Validate(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, tenant.ErrInvalidTenant) {
			err = common.BadRequest("id", err.Error(), err)
		}
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
