package tenant

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidTenant is returned when an identifier is absent or not registered.
var ErrInvalidTenant = errors.New("invalid tenant")

// Registry is the static, configuration provided list of tenants. The default
// tenant is always registered.
type Registry struct {
	ids []string
}

// NewRegistry builds a registry from the named tenants. Blank and duplicate
// names are ignored.
func NewRegistry(named ...string) *Registry {
	ids := []string{DefaultID}
	for _, id := range named {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	return &Registry{ids: ids}
}

// List returns the registered tenant identifiers, default first.
func (r *Registry) List() []string {
	if r == nil {
		return []string{DefaultID}
	}
	return slices.Clone(r.ids)
}

// IsValid reports whether id is registered.
func (r *Registry) IsValid(id string) bool {
	if r == nil || id == "" {
		return false
	}
	return slices.Contains(r.ids, id)
}

// Validate returns ErrInvalidTenant when id is empty or unknown.
func (r *Registry) Validate(id string) error {
	if !r.IsValid(id) {
		return fmt.Errorf("%w: %q", ErrInvalidTenant, id)
	}
	return nil
}

// Switch validates id and returns a context in which it is the active tenant.
func (r *Registry) Switch(ctx context.Context, id string) (context.Context, error) {
	if err := r.Validate(id); err != nil {
		return ctx, err
	}
	return WithTenant(ctx, id), nil
}
