package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/obs"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("toko", []float64{1, 10}, registry)
	r := chi.NewRouter()
	r.Use(tenant.NewResolver("", "", "").Middleware)
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Delete("/api/cart/items/{productId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/cart/items/42", nil)
	req.Header.Set("X-Tenant-ID", "tenant1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues("tenant1", http.MethodDelete, "/api/cart/items/{productId}", "204")))
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight.WithLabelValues("tenant1")))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(tenant.DefaultID, http.MethodGet, "unmatched", "404")))
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 10, 25}, obs.ParseBucketsCSV("25, 5,x,-1,10,5"))
	require.Empty(t, obs.ParseBucketsCSV(""))
}

func TestRequestLoggerTagsTenant(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	resolver := tenant.NewResolver("", "", "")

	handler := resolver.Middleware(obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("X-Tenant-ID", "tenant2")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "tenant2", entry["tenant"])
	require.Equal(t, float64(http.StatusOK), entry["status"])
	require.Equal(t, "http_request", entry["message"])
}

func TestRequestLoggerSharesScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := tenant.NewResolver("", "", "").Middleware(obs.RequestLogger{Logger: zerolog.New(&buf)}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusConflict)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/cart/apply-promo", nil)
	req.Header.Set("X-Tenant-ID", "tenant1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, outer map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &outer))
	require.Equal(t, "inside", inner["message"])
	require.Equal(t, "tenant1", inner["tenant"])
	require.Equal(t, "warn", outer["level"])
	require.Equal(t, float64(http.StatusConflict), outer["status"])
}

func TestDomainHelpersSafeBeforeRegistration(t *testing.T) {
	require.NotPanics(t, func() {
		obs.IncPromotionRejection("expired")
		obs.AddCartsExpired("tenant1", 0)
	})
}
