package tenant_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

func TestFromContextEmpty(t *testing.T) {
	_, ok := tenant.From(context.Background())
	require.False(t, ok)
	require.Equal(t, "default", tenant.OrDefault(context.Background()))

	ctx := tenant.Clear(tenant.With(context.Background(), "tenant1"))
	_, ok = tenant.From(ctx)
	require.False(t, ok)
}

func TestRunReleasesTenantOnError(t *testing.T) {
	parent := tenant.With(context.Background(), "tenant1")
	boom := errors.New("boom")

	err := tenant.Run(parent, "tenant2", func(ctx context.Context) error {
		require.Equal(t, "tenant2", tenant.OrDefault(ctx))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, "tenant1", tenant.OrDefault(parent))
}

func TestConcurrentContextsStayIsolated(t *testing.T) {
	var wg sync.WaitGroup
	ids := []string{"tenant1", "tenant2", "default"}
	errs := make(chan string, len(ids)*100)

	for _, id := range ids {
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_ = tenant.Run(context.Background(), id, func(ctx context.Context) error {
					if got := tenant.OrDefault(ctx); got != id {
						errs <- got
					}
					return nil
				})
			}(id)
		}
	}
	wg.Wait()
	close(errs)

	for got := range errs {
		t.Fatalf("observed foreign tenant %q", got)
	}
}
