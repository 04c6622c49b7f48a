// Package ratelimit throttles API traffic per tenant and client address.
package ratelimit

import (
	"context"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// Allower decides whether one more event for key fits in the window.
type Allower interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// TenantClientKey keys limits by resolved tenant and client address, so one
// tenant's traffic never consumes another's budget.
func TenantClientKey(r *http.Request) string {
	return tenant.PrefixKey(tenant.OrDefault(r.Context()), clientIP(r))
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP middleware
// has already replaced with the forwarded client address.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().Unmap().String()
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Handler throttles requests through Limiter. Limiter errors let the request
// through and are reported to OnError.
type Handler struct {
	Limiter Allower
	Config  Config
	OnError func(error)
}

// Middleware implements the http.Handler middleware interface.
func (h Handler) Middleware(next http.Handler) http.Handler {
	keyOf := h.Config.Key
	if keyOf == nil {
		keyOf = TenantClientKey
	}
	limit := max(h.Config.Max, 0)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		ok, remaining, reset, err := h.Limiter.Allow(r.Context(), keyOf(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		hdr.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		hdr.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		hdr.Set("Retry-After", strconv.Itoa(retryAfter(reset)))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", map[string]any{
			"tenant": tenant.OrDefault(r.Context()),
		})
	})
}

// retryAfter rounds the wait up to whole seconds, never below one.
func retryAfter(reset time.Time) int {
	secs := int(math.Ceil(time.Until(reset).Seconds()))
	return max(secs, 1)
}
