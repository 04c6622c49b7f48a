package promotion

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

// Handler exposes promotion management and discount calculation endpoints.
type Handler struct {
	Svc *Service
}

type promotionPayload struct {
	Code                 string              `json:"code" validate:"required,max=64"`
	Name                 string              `json:"name" validate:"required,max=255"`
	Description          string              `json:"description"`
	DiscountType         models.DiscountType `json:"discountType" validate:"required"`
	DiscountValue        decimal.Decimal     `json:"discountValue"`
	MinOrderAmount       *decimal.Decimal    `json:"minOrderAmount"`
	MaxDiscountAmount    *decimal.Decimal    `json:"maxDiscountAmount"`
	UsageLimit           *int                `json:"usageLimit" validate:"omitempty,min=0"`
	ValidFrom            time.Time           `json:"validFrom" validate:"required"`
	ValidTo              time.Time           `json:"validTo" validate:"required,gtefield=ValidFrom"`
	ApplicableCategories []string            `json:"applicableCategories"`
	ApplicableProductIDs []uuid.UUID         `json:"applicableProducts"`
	Active               *bool               `json:"active"`
}

type discountResponse struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
	Discount    decimal.Decimal `json:"discount"`
}

// Register mounts the promotion routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/active", h.Active)
	r.Get("/category/{category}", h.ForCategory)
	r.Get("/code/{code}", h.ByCode)
	r.Post("/code/{code}/calculate-discount", h.CalculateByCode)
	r.Get("/{id}", h.ByID)
	r.Post("/{id}/calculate-discount", h.Calculate)
	r.Post("/{id}/increment-usage", h.IncrementUsage)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Patch("/{id}/deactivate", h.Deactivate)
}

// List handles GET /api/promotions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// Active handles GET /api/promotions/active.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.Active(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// ForCategory handles GET /api/promotions/category/{category}.
func (h *Handler) ForCategory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.ActiveForCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// ByID handles GET /api/promotions/{id}.
func (h *Handler) ByID(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// ByCode handles GET /api/promotions/code/{code}.
func (h *Handler) ByCode(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// Calculate handles POST /api/promotions/{id}/calculate-discount?orderAmount=.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	amount, err := common.DecimalQuery(r, "orderAmount")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, discountResponse{Code: p.Code, OrderAmount: amount, Discount: h.Svc.Discount(&p, amount)})
}

// CalculateByCode handles POST /api/promotions/code/{code}/calculate-discount?orderAmount=.
func (h *Handler) CalculateByCode(w http.ResponseWriter, r *http.Request) {
	amount, err := common.DecimalQuery(r, "orderAmount")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	code := chi.URLParam(r, "code")
	discount, err := h.Svc.CalculateDiscountByCode(r.Context(), code, amount)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, discountResponse{Code: code, OrderAmount: amount, Discount: discount})
}

// IncrementUsage handles POST /api/promotions/{id}/increment-usage.
func (h *Handler) IncrementUsage(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.IncrementUsage(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// Create handles POST /api/promotions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload promotionPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	p := models.Promotion{
		Code:                 strings.TrimSpace(payload.Code),
		Name:                 payload.Name,
		Description:          payload.Description,
		DiscountType:         payload.DiscountType,
		DiscountValue:        payload.DiscountValue,
		UsageLimit:           payload.UsageLimit,
		ValidFrom:            payload.ValidFrom,
		ValidTo:              payload.ValidTo,
		ApplicableCategories: payload.ApplicableCategories,
		ApplicableProductIDs: payload.ApplicableProductIDs,
		Active:               true,
	}
	if payload.MinOrderAmount != nil {
		p.MinOrderAmount = decimal.NewNullDecimal(*payload.MinOrderAmount)
	}
	if payload.MaxDiscountAmount != nil {
		p.MaxDiscountAmount = decimal.NewNullDecimal(*payload.MaxDiscountAmount)
	}
	if payload.Active != nil {
		p.Active = *payload.Active
	}
	created, err := h.Svc.Create(r.Context(), p)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, created)
}

// Update handles PUT /api/promotions/{id} as a partial update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var patch models.PromotionPatch
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

// Delete handles DELETE /api/promotions/{id}.
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

// Deactivate handles PATCH /api/promotions/{id}/deactivate.
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
