package sweep_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/cart"
	"github.com/noah-isme/toko-tenant-cart/internal/lock"
	"github.com/noah-isme/toko-tenant-cart/internal/repo/memrepo"
	"github.com/noah-isme/toko-tenant-cart/internal/sweep"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

type recordingExpirer struct {
	tenants []string
	days    []int
}

func (r *recordingExpirer) ExpireAbandoned(ctx context.Context, days int) (int64, error) {
	id, _ := tenant.From(ctx)
	r.tenants = append(r.tenants, id)
	r.days = append(r.days, days)
	return 0, nil
}

func TestNewExpireTask(t *testing.T) {
	task, err := sweep.NewExpireTask("tenant1", 7)
	require.NoError(t, err)
	require.Equal(t, sweep.TypeExpireAbandoned, task.Type())

	var p sweep.Payload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	require.Equal(t, sweep.Payload{Tenant: "tenant1", Days: 7}, p)

	_, err = sweep.NewExpireTask(" ", 7)
	require.Error(t, err)
}

func TestProcessTaskRunsInsideTenant(t *testing.T) {
	rec := &recordingExpirer{}
	h := &sweep.Handler{Carts: rec, Logger: zerolog.Nop()}

	task, err := sweep.NewExpireTask("tenant2", 3)
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))
	require.Equal(t, []string{"tenant2"}, rec.tenants)
	require.Equal(t, []int{3}, rec.days)

	bad := asynq.NewTask(sweep.TypeExpireAbandoned, []byte(`{"days":1}`))
	err = h.ProcessTask(context.Background(), bad)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestProcessTaskExpiresRoutedPartitionUnderLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stores := memrepo.NewStores(memrepo.NewRouter("tenant1", "tenant2"))
	svc := &cart.Service{Carts: stores.Carts}
	old := time.Now().Add(-30 * 24 * time.Hour)
	for _, id := range []string{"tenant1", "tenant2"} {
		ctx := tenant.With(context.Background(), id)
		_, err := svc.GetOrCreate(ctx, cart.Owner{SessionID: "s"})
		require.NoError(t, err)
		require.NoError(t, stores.Carts.Touch(ctx, "s", old))
	}

	locker := lock.Locker{R: client}
	h := &sweep.Handler{Carts: svc, Locker: locker, Logger: zerolog.Nop()}
	task, err := sweep.NewExpireTask("tenant1", 7)
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))

	require.Zero(t, stores.Carts.Count(tenant.With(context.Background(), "tenant1")))
	require.Equal(t, 1, stores.Carts.Count(tenant.With(context.Background(), "tenant2")))
	require.False(t, mr.Exists("tenant1:lock:cart-sweep"))

	held := locker.TryTenantLock(context.Background(), "tenant2", "cart-sweep", time.Minute, func(ctx context.Context) error {
		task, err := sweep.NewExpireTask("tenant2", 7)
		require.NoError(t, err)
		require.NoError(t, h.ProcessTask(ctx, task))
		return nil
	})
	require.NoError(t, held)
	require.Equal(t, 1, stores.Carts.Count(tenant.With(context.Background(), "tenant2")))
}
