package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/health"
)

func ready(t *testing.T, h health.Handler) (int, health.Report) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var rep health.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rep))
	return rr.Code, rep
}

func pass(context.Context) error { return nil }

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReady(t *testing.T) {
	code, rep := ready(t, health.Handler{Probes: map[string]health.Probe{"db": pass, "redis": pass}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", rep.Status)
	require.Equal(t, map[string]string{"db": "ok", "redis": "ok"}, rep.Checks)

	code, rep = ready(t, health.Handler{Probes: map[string]health.Probe{
		"db":    func(context.Context) error { return errors.New("db down") },
		"redis": pass,
	}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "degraded", rep.Status)
	require.Equal(t, "db down", rep.Checks["db"])

	code, _ = ready(t, health.Handler{})
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadyProbeTimeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	code, rep := ready(t, health.Handler{Probes: map[string]health.Probe{"db": slow}, Timeout: 10 * time.Millisecond})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, context.DeadlineExceeded.Error(), rep.Checks["db"])
}

func TestReadinessAfterShutdown(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })
	h := health.Handler{Probes: map[string]health.Probe{"db": pass}}

	code, _ := ready(t, h)
	require.Equal(t, http.StatusOK, code)

	health.SetReady(false)
	code, rep := ready(t, h)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "shutting_down", rep.Status)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("ping tenant1: unreachable") }

func TestDepsProbes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	code, rep := ready(t, health.Handler{Probes: health.Deps{DB: failingPinger{}, Redis: client}.Probes()})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "ok", rep.Checks["redis"])
	require.Equal(t, "ping tenant1: unreachable", rep.Checks["db"])

	_, rep = ready(t, health.Handler{Probes: health.Deps{}.Probes()})
	require.Equal(t, "redis not configured", rep.Checks["redis"])
}
