package pricing

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
)

// Handler exposes price lookup and price rule management endpoints.
type Handler struct {
	Svc *Service
}

type rulePayload struct {
	ProductID     uuid.UUID       `json:"productId" validate:"required"`
	Price         decimal.Decimal `json:"price"`
	PriceType     string          `json:"priceType" validate:"required,max=64"`
	CustomerGroup *string         `json:"customerGroup"`
	MinQuantity   *int            `json:"minQuantity" validate:"omitempty,min=1"`
	ValidFrom     *time.Time      `json:"validFrom"`
	ValidTo       *time.Time      `json:"validTo"`
	Active        *bool           `json:"active"`
}

type effectivePriceResponse struct {
	ProductID     uuid.UUID       `json:"productId"`
	CustomerGroup *string         `json:"customerGroup,omitempty"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
}

// Register mounts the price routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/product/{productId}/effective", h.EffectivePrice)
	r.Get("/product/{productId}", h.ProductRules)
	r.Get("/type/{priceType}", h.ByType)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Patch("/{id}/deactivate", h.Deactivate)
}

// EffectivePrice handles GET /api/prices/product/{productId}/effective.
func (h *Handler) EffectivePrice(w http.ResponseWriter, r *http.Request) {
	productID, err := common.UUIDParam(r, "productId")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	qty := common.AtoiDefault(r.URL.Query().Get("quantity"), 1)
	if qty < 1 {
		common.WriteError(w, ErrInvalidQuantity)
		return
	}
	group := common.OptionalQuery(r, "customerGroup")
	price, err := h.Svc.Resolver.EffectivePrice(r.Context(), productID, group, qty)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, effectivePriceResponse{ProductID: productID, CustomerGroup: group, Quantity: qty, Price: price})
}

// ProductRules handles GET /api/prices/product/{productId}.
func (h *Handler) ProductRules(w http.ResponseWriter, r *http.Request) {
	productID, err := common.UUIDParam(r, "productId")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	rules, err := h.Svc.RulesForProduct(r.Context(), productID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rules)
}

// ByType handles GET /api/prices/type/{priceType}.
func (h *Handler) ByType(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Svc.RulesByType(r.Context(), chi.URLParam(r, "priceType"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rules)
}

// Create handles POST /api/prices.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload rulePayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	rule := models.PriceRule{
		ProductID:   payload.ProductID,
		Price:       payload.Price,
		PriceType:   strings.TrimSpace(payload.PriceType),
		MinQuantity: 1,
		ValidFrom:   payload.ValidFrom,
		ValidTo:     payload.ValidTo,
		Active:      true,
	}
	if payload.CustomerGroup != nil && strings.TrimSpace(*payload.CustomerGroup) != "" {
		group := strings.TrimSpace(*payload.CustomerGroup)
		rule.CustomerGroup = &group
	}
	if payload.MinQuantity != nil {
		rule.MinQuantity = *payload.MinQuantity
	}
	if payload.Active != nil {
		rule.Active = *payload.Active
	}
	created, err := h.Svc.Create(r.Context(), rule)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, created)
}

// Update handles PUT /api/prices/{id} as a partial update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var patch models.PriceRulePatch
	if err := common.DecodeJSON(r, &patch); err != nil {
		common.WriteError(w, err)
		return
	}
	updated, err := h.Svc.Update(r.Context(), id, patch)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/prices/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deactivate handles PATCH /api/prices/{id}/deactivate.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Svc.Deactivate(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
