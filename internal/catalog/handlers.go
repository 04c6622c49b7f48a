package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
)

// Handler exposes product endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

type productPayload struct {
	SKU           string          `json:"sku" validate:"required,max=64"`
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	BasePrice     decimal.Decimal `json:"basePrice"`
	StockQuantity int             `json:"stockQuantity" validate:"min=0"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	ImageURLs     []string        `json:"imageUrls"`
	Active        *bool           `json:"active"`
}

// Register mounts the product routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/all", h.All)
	r.Get("/search", h.Search)
	r.Get("/in-stock", h.InStock)
	r.Get("/sku/{sku}", h.BySKU)
	r.Get("/category/{category}", h.ByCategory)
	r.Get("/brand/{brand}", h.ByBrand)
	r.Get("/{id}", h.ByID)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Patch("/{id}/deactivate", h.Deactivate)
}

func (h *Handler) writePage(w http.ResponseWriter, page Page) {
	w.Header().Set("X-Total-Count", strconv.FormatInt(page.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       page.Items,
		"pagination": page.Pagination,
	})
}

// List handles GET /api/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListActive(r.Context(), common.ParsePagination(r, h.service.DefaultLimit()))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.writePage(w, page)
}

// All handles GET /api/products/all.
func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListAll(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// Search handles GET /api/products/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), common.ParsePagination(r, h.service.DefaultLimit()))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.writePage(w, page)
}

// InStock handles GET /api/products/in-stock.
func (h *Handler) InStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.InStock(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// BySKU handles GET /api/products/sku/{sku}.
func (h *Handler) BySKU(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetBySKU(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// ByCategory handles GET /api/products/category/{category}.
func (h *Handler) ByCategory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// ByBrand handles GET /api/products/brand/{brand}.
func (h *Handler) ByBrand(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ByBrand(r.Context(), chi.URLParam(r, "brand"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// ByID handles GET /api/products/{id}.
func (h *Handler) ByID(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// Create handles POST /api/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload productPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	p := models.Product{
		SKU:           strings.TrimSpace(payload.SKU),
		Name:          payload.Name,
		Description:   payload.Description,
		BasePrice:     payload.BasePrice,
		StockQuantity: payload.StockQuantity,
		Category:      payload.Category,
		Brand:         payload.Brand,
		ImageURLs:     payload.ImageURLs,
		Active:        true,
	}
	if payload.Active != nil {
		p.Active = *payload.Active
	}
	created, err := h.service.Create(r.Context(), p)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, created)
}

// Update handles PUT /api/products/{id}. Only fields present in the body change.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var patch models.ProductPatch
	if err := common.DecodeJSON(r, &patch); err != nil {
		common.WriteError(w, err)
		return
	}
	updated, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/products/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deactivate handles PATCH /api/products/{id}/deactivate.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
