package cart

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
)

const (
	// SessionHeader carries the anonymous cart session.
	SessionHeader = "X-Session-ID"
	// UserHeader selects a user cart instead of the session cart.
	UserHeader = "X-User-ID"
	// SessionCookie is the cookie fallback for SessionHeader.
	SessionCookie = "cart_session"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc         *Service
	AbandonDays int
	// Idempotency wraps mutating routes when set.
	Idempotency func(http.Handler) http.Handler
}

type itemPayload struct {
	ProductID     uuid.UUID `json:"productId" validate:"required"`
	Quantity      int       `json:"quantity"`
	CustomerGroup *string   `json:"customerGroup"`
}

// Register mounts the cart routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.Get)
	r.Get("/user/{userId}", h.GetUser)
	r.Group(func(r chi.Router) {
		if h.Idempotency != nil {
			r.Use(h.Idempotency)
		}
		r.Post("/items", h.AddItem)
		r.Put("/items", h.UpdateItem)
		r.Delete("/items/{productId}", h.RemoveItem)
		r.Post("/promotions/{code}", h.ApplyPromotion)
		r.Delete("/promotions", h.RemovePromotion)
		r.Delete("/clear", h.Clear)
		r.Post("/cleanup", h.Cleanup)
	})
}

// owner identifies the caller's cart. A session id is issued when the
// request carries neither a user nor a session.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) Owner {
	if user := strings.TrimSpace(r.Header.Get(UserHeader)); user != "" {
		return Owner{UserID: user}
	}
	session := strings.TrimSpace(r.Header.Get(SessionHeader))
	if session == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			session = strings.TrimSpace(c.Value)
		}
	}
	if session == "" {
		session = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    session,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.Header().Set(SessionHeader, session)
	return Owner{SessionID: session}
}

// Get handles GET /api/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.GetOrCreate(r.Context(), h.owner(w, r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// GetUser handles GET /api/cart/user/{userId}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.GetOrCreate(r.Context(), Owner{UserID: strings.TrimSpace(chi.URLParam(r, "userId"))})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// AddItem handles POST /api/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.AddItem(r.Context(), h.owner(w, r), payload.ProductID, payload.Quantity, common.OptionalString(payload.CustomerGroup))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// UpdateItem handles PUT /api/cart/items. A quantity of zero or less removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.UpdateItem(r.Context(), h.owner(w, r), payload.ProductID, payload.Quantity, common.OptionalString(payload.CustomerGroup))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// RemoveItem handles DELETE /api/cart/items/{productId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := common.UUIDParam(r, "productId")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.RemoveItem(r.Context(), h.owner(w, r), productID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// ApplyPromotion handles POST /api/cart/promotions/{code}.
func (h *Handler) ApplyPromotion(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.ApplyPromotion(r.Context(), h.owner(w, r), chi.URLParam(r, "code"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// RemovePromotion handles DELETE /api/cart/promotions.
func (h *Handler) RemovePromotion(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.RemovePromotion(r.Context(), h.owner(w, r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Clear handles DELETE /api/cart/clear.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Clear(r.Context(), h.owner(w, r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Cleanup handles POST /api/cart/cleanup?daysOld=N.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	def := h.AbandonDays
	if def <= 0 {
		def = DefaultAbandonDays
	}
	days := common.AtoiDefault(r.URL.Query().Get("daysOld"), def)
	n, err := h.Svc.ExpireAbandoned(r.Context(), days)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"deleted": n, "daysOld": days})
}
