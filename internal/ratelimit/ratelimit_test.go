package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/ratelimit"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

func newClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSlidingWindowAllow(t *testing.T) {
	client, mr := newClient(t)
	limiter := ratelimit.SlidingWindow{Client: client, Prefix: "test:"}
	ctx := context.Background()
	window := 2 * time.Second

	for i := 0; i < 2; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "key", window, 2)
		require.NoError(t, err)
		require.True(t, allowed)
		require.Equal(t, 2-(i+1), remaining)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "key", window, 2)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	members, err := mr.ZMembers("test:key")
	require.NoError(t, err)
	require.Len(t, members, 2, "rejected events are not kept")

	mr.FastForward(window)
	allowed, _, _, err = limiter.Allow(ctx, "key", window, 2)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestFixedWindowAllow(t *testing.T) {
	client, _ := newClient(t)
	limiter, err := ratelimit.NewFixedWindow(client, "fixed")
	require.NoError(t, err)
	ctx := context.Background()

	allowed, remaining, _, err := limiter.Allow(ctx, "key", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, remaining)

	allowed, _, _, err = limiter.Allow(ctx, "key", time.Minute, 1)
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "other", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestMiddlewareBudgetsPerTenant(t *testing.T) {
	client, _ := newClient(t)
	handler := ratelimit.Handler{
		Limiter: ratelimit.SlidingWindow{Client: client, Prefix: "ratelimit:"},
		Config:  ratelimit.Config{Window: time.Minute, Max: 1},
	}
	limited := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(tenantID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req = req.WithContext(tenant.With(req.Context(), tenantID))
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, serve("tenant1").Code)
	rec := serve("tenant1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	require.Equal(t, http.StatusOK, serve("tenant2").Code)
}

func TestMiddlewareFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	var seen error
	handler := ratelimit.Handler{
		Limiter: ratelimit.SlidingWindow{Client: client},
		Config:  ratelimit.Config{Window: time.Second, Max: 1},
		OnError: func(err error) { seen = err },
	}
	rec := httptest.NewRecorder()
	handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Error(t, seen)
}
