// Package health serves the liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
)

// Probe checks one dependency and returns nil when it is usable.
type Probe func(ctx context.Context) error

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the readiness flag. The API clears it when shutdown starts so
// load balancers stop routing before connections drain.
func SetReady(v bool) { ready.Store(v) }

// Handler exposes the health endpoints.
type Handler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

// Report is the readiness payload.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Live reports that the process is up.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe concurrently and answers 503 unless all pass.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, Report{Status: "shutting_down"})
		return
	}
	if len(h.Probes) == 0 {
		common.JSON(w, http.StatusServiceUnavailable, Report{Status: "unconfigured"})
		return
	}
	rep := h.check(r.Context())
	status := http.StatusOK
	if rep.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	common.JSON(w, status, rep)
}

func (h Handler) check(ctx context.Context) Report {
	names := make([]string, 0, len(h.Probes))
	for name := range h.Probes {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, probe Probe) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, h.timeout())
			defer cancel()
			results[i] = "ok"
			if err := probe(pctx); err != nil {
				results[i] = err.Error()
			}
		}(i, h.Probes[name])
	}
	wg.Wait()

	rep := Report{Status: "ok", Checks: make(map[string]string, len(names))}
	for i, name := range names {
		rep.Checks[name] = results[i]
		if results[i] != "ok" {
			rep.Status = "degraded"
		}
	}
	return rep
}

func (h Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.Timeout
}
