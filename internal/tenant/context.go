// Package tenant carries the active tenant through a context.Context and
// resolves it from HTTP requests.
//
// The tenant is a value on the context, never process or goroutine state:
// concurrent requests for different tenants cannot observe each other, and
// work spawned from a request inherits its tenant only through the context
// it is handed.
package tenant

import (
	"context"
	"strings"
)

type ctxKey struct{}

// WithTenant returns a child of ctx whose active tenant is id. A blank id
// hides any tenant the parent carried.
func WithTenant(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, strings.TrimSpace(id))
}

// With is shorthand for WithTenant.
func With(ctx context.Context, id string) context.Context { return WithTenant(ctx, id) }

// Clear returns a context in which no tenant is visible.
func Clear(ctx context.Context) context.Context { return WithTenant(ctx, "") }

// FromContext returns the active tenant and whether one is set.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id, id != ""
}

// From is shorthand for FromContext.
func From(ctx context.Context) (string, bool) { return FromContext(ctx) }

// OrDefault returns the tenant in ctx or DefaultID when none is set.
func OrDefault(ctx context.Context) string {
	if id, ok := FromContext(ctx); ok {
		return id
	}
	return DefaultID
}

// Run calls fn with id as the active tenant. The binding lives on the context
// handed to fn, so it ends when fn returns on every path and the caller's ctx
// is left untouched.
func Run(ctx context.Context, id string, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(WithTenant(ctx, id))
}

// PrefixKey namespaces key under tenant id, e.g. "tenant1:product:42". An
// empty id leaves key as is.
func PrefixKey(id, key string) string {
	if id == "" {
		return key
	}
	return id + ":" + key
}
