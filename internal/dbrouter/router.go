// Package dbrouter maps the active tenant onto its storage partition.
package dbrouter

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-tenant-cart/internal/obs"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// Router selects a partition per call from the tenant carried by the
// context. Tenants without a registered partition, and calls without a
// tenant, use the default partition.
type Router[T any] struct {
	mu       sync.RWMutex
	targets  map[string]T
	owners   map[string]string
	fallback T
	logger   zerolog.Logger
}

// New returns a router whose default partition is fallback.
func New[T any](fallback T, logger zerolog.Logger) *Router[T] {
	return &Router[T]{
		targets:  map[string]T{tenant.DefaultID: fallback},
		owners:   map[string]string{},
		fallback: fallback,
		logger:   logger,
	}
}

// Register binds id to target. Registering the default tenant replaces the fallback.
func (r *Router[T]) Register(id string, target T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[id] = target
	delete(r.owners, id)
	if id == tenant.DefaultID {
		r.fallback = target
	}
}

// Share routes id to the partition already registered for owner. Both
// tenants then report owner as their partition key.
func (r *Router[T]) Share(id, owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.targets[owner]
	if !ok {
		target = r.fallback
		owner = tenant.DefaultID
	}
	r.targets[id] = target
	r.owners[id] = owner
}

// Key returns the partition key that For would use for ctx. A fallback to
// the default partition is logged and counted.
func (r *Router[T]) Key(ctx context.Context) string {
	key, fellBack := r.resolve(ctx)
	if fellBack {
		id, _ := tenant.From(ctx)
		r.logger.Warn().Str("tenant", id).Msg("no partition for tenant, using default")
		obs.IncTenantFallback(id)
	}
	return key
}

// Partition is Key without the fallback log and metric, for callers such as
// caches that namespace by partition alongside a routed store call.
func (r *Router[T]) Partition(ctx context.Context) string {
	key, _ := r.resolve(ctx)
	return key
}

func (r *Router[T]) resolve(ctx context.Context) (string, bool) {
	id, ok := tenant.From(ctx)
	if !ok {
		return tenant.DefaultID, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if owner, shared := r.owners[id]; shared {
		return owner, false
	}
	if _, registered := r.targets[id]; registered {
		return id, false
	}
	return tenant.DefaultID, true
}

// For returns the partition for the tenant active in ctx.
func (r *Router[T]) For(ctx context.Context) T {
	key := r.Key(ctx)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.targets[key]; ok {
		return target
	}
	return r.fallback
}

// Lookup returns the partition registered for id without falling back.
func (r *Router[T]) Lookup(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	target, ok := r.targets[id]
	return target, ok
}

// Tenants lists the registered partition keys in sorted order.
func (r *Router[T]) Tenants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.targets))
	for id := range r.targets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Each calls fn once per partition, skipping tenants that share another
// tenant's partition, and stops at the first error.
func (r *Router[T]) Each(fn func(id string, target T) error) error {
	for _, id := range r.Tenants() {
		r.mu.RLock()
		target, ok := r.targets[id]
		_, shared := r.owners[id]
		r.mu.RUnlock()
		if !ok || shared {
			continue
		}
		if err := fn(id, target); err != nil {
			return err
		}
	}
	return nil
}
