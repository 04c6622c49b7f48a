package obs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteOf returns the chi pattern matched for r, or fallback when routing has
// not happened or matched nothing. Call it after the handler ran: chi fills
// the pattern in while it routes.
func RouteOf(r *http.Request, fallback string) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && pattern != "/*" {
			return pattern
		}
	}
	return fallback
}
