package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

func TestRegistryValidate(t *testing.T) {
	reg := tenant.NewRegistry("tenant1", "tenant2", "tenant1", " ")

	require.Equal(t, []string{"default", "tenant1", "tenant2"}, reg.List())
	require.True(t, reg.IsValid("default"))
	require.True(t, reg.IsValid("tenant2"))
	require.False(t, reg.IsValid("ghost"))
	require.False(t, reg.IsValid(""))

	require.NoError(t, reg.Validate("tenant1"))
	require.ErrorIs(t, reg.Validate("ghost"), tenant.ErrInvalidTenant)
	require.ErrorIs(t, reg.Validate(""), tenant.ErrInvalidTenant)
}

func TestRegistrySwitch(t *testing.T) {
	reg := tenant.NewRegistry("tenant1")
	base := tenant.With(context.Background(), "default")

	ctx, err := reg.Switch(base, "tenant1")
	require.NoError(t, err)
	require.Equal(t, "tenant1", tenant.OrDefault(ctx))
	require.Equal(t, "default", tenant.OrDefault(base))

	same, err := reg.Switch(base, "ghost")
	require.ErrorIs(t, err, tenant.ErrInvalidTenant)
	require.Equal(t, "default", tenant.OrDefault(same))
}
