package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/config"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func baseEnv(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":        "postgres://localhost/toko",
		"REDIS_URL":           "redis://localhost:6379/0",
		"TENANTS":             "",
		"PORT":                "",
		"CART_ABANDON_DAYS":   "",
		"RATE_LIMIT_STRATEGY": "",
	})
}

func TestLoadDefaults(t *testing.T) {
	baseEnv(t)
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "X-Tenant-ID", cfg.TenantHeader)
	require.Equal(t, 7, cfg.CartAbandonDays)
	require.Equal(t, "@every 1h", cfg.CartSweepCron)
	require.Equal(t, "sliding", cfg.RateLimitStrategy)
	require.Empty(t, cfg.Tenants)
	require.Empty(t, cfg.TenantDSNs)
}

func TestLoadTenantPartitions(t *testing.T) {
	baseEnv(t)
	setEnv(t, map[string]string{
		"TENANTS":                      "tenant1, tenant-2 ,",
		"TENANT_TENANT1_DATABASE_URL":  "postgres://localhost/tenant1",
		"TENANT_TENANT_2_DATABASE_URL": "postgres://localhost/toko",
		"TENANT_STRICT":                "true",
		"CATALOG_CACHE_TTL":            "90s",
		"PORT":                         ":9090",
	})
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"tenant1", "tenant-2"}, cfg.Tenants)
	require.Equal(t, map[string]string{
		"tenant1":  "postgres://localhost/tenant1",
		"tenant-2": "postgres://localhost/toko",
	}, cfg.TenantDSNs)
	require.True(t, cfg.TenantStrict)
	require.Equal(t, 90*time.Second, cfg.CatalogCacheTTL)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	baseEnv(t)
	setEnv(t, map[string]string{
		"CATALOG_CACHE_TTL": "soon",
		"CATALOG_PAGE_SIZE": "many",
	})
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, 20, cfg.CatalogPageSize)
}

func TestLoadReportsEveryProblem(t *testing.T) {
	baseEnv(t)
	setEnv(t, map[string]string{
		"DATABASE_URL":        "",
		"RATE_LIMIT_STRATEGY": "token-bucket",
	})
	_, err := config.Load()
	require.ErrorContains(t, err, "DATABASE_URL")
	require.ErrorContains(t, err, "RATE_LIMIT_STRATEGY")
}

func TestLoadRejectsTenantWithoutDatabase(t *testing.T) {
	baseEnv(t)
	setEnv(t, map[string]string{
		"TENANTS":                     "tenant1,tenant2",
		"TENANT_TENANT1_DATABASE_URL": "postgres://localhost/tenant1",
		"TENANT_TENANT2_DATABASE_URL": "",
	})
	_, err := config.Load()
	require.ErrorContains(t, err, `TENANT_TENANT2_DATABASE_URL is required for tenant "tenant2"`)
}

func TestTenantDSNKey(t *testing.T) {
	require.Equal(t, "TENANT_TENANT1_DATABASE_URL", config.TenantDSNKey("tenant1"))
	require.Equal(t, "TENANT_ACME_EU_DATABASE_URL", config.TenantDSNKey("acme.eu"))
}
