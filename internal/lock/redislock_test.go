package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/lock"
)

func TestWithTenantLockWaitsForHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(step string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, step)
	}

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- locker.WithTenantLock(ctx, "tenant1", "reprice", time.Second, func(context.Context) error {
			record("first")
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	waiting := make(chan error, 1)
	go func() {
		waiting <- locker.WithTenantLock(ctx, "tenant1", "reprice", time.Second, func(context.Context) error {
			record("second")
			return nil
		})
	}()

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	require.Equal(t, []string{"first"}, order)
	mu.Unlock()

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, <-waiting)
	require.Equal(t, []string{"first", "second"}, order)
	require.False(t, mr.Exists("tenant1:lock:reprice"))
}

func TestWithLockGivesUpWhenContextEnds(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, mr.Set("busy", "someone-else"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}.WithLock(ctx, "busy", time.Second, func(context.Context) error {
		t.Fatal("must not run")
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	got, _ := mr.Get("busy")
	require.Equal(t, "someone-else", got)
}

func TestTryTenantLockIsolatesTenants(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := lock.Locker{R: client}
	ctx := context.Background()

	err := locker.TryTenantLock(ctx, "tenant1", "cart-sweep", time.Minute, func(ctx context.Context) error {
		require.True(t, mr.Exists("tenant1:lock:cart-sweep"))

		inner := locker.TryTenantLock(ctx, "tenant1", "cart-sweep", time.Minute, func(context.Context) error { return nil })
		require.ErrorIs(t, inner, lock.ErrLocked)

		ran := false
		require.NoError(t, locker.TryTenantLock(ctx, "tenant2", "cart-sweep", time.Minute, func(context.Context) error {
			ran = true
			return nil
		}))
		require.True(t, ran)
		return nil
	})
	require.NoError(t, err)
	require.False(t, mr.Exists("tenant1:lock:cart-sweep"))
}
