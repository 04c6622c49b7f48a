// Package sweep runs the periodic abandoned cart cleanup through asynq, one
// task per tenant so each partition is swept independently.
package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-tenant-cart/internal/lock"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// TypeExpireAbandoned is the asynq task type of the cart sweep.
const TypeExpireAbandoned = "cart:expire_abandoned"

// Queue is the asynq queue sweep tasks are placed on.
const Queue = "maintenance"

const lockName = "cart-sweep"

// Payload is the body of a sweep task.
type Payload struct {
	Tenant string `json:"tenant"`
	Days   int    `json:"days"`
}

// NewExpireTask builds the sweep task for tenantID.
func NewExpireTask(tenantID string, days int) (*asynq.Task, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, errors.New("sweep: tenant is required")
	}
	body, err := json.Marshal(Payload{Tenant: tenantID, Days: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExpireAbandoned, body,
		asynq.Queue(Queue),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	), nil
}

// Expirer deletes abandoned carts of the tenant in ctx.
type Expirer interface {
	ExpireAbandoned(ctx context.Context, days int) (int64, error)
}

// TenantLocker runs fn under a tenant-scoped lock, failing with lock.ErrLocked when it is taken.
type TenantLocker interface {
	TryTenantLock(ctx context.Context, tenantID, name string, ttl time.Duration, fn func(context.Context) error) error
}

// Handler processes sweep tasks.
type Handler struct {
	Carts   Expirer
	Locker  TenantLocker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode sweep payload: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(p.Tenant) == "" {
		return fmt.Errorf("sweep payload without tenant: %w", asynq.SkipRetry)
	}
	logger := h.Logger.With().Str("tenant", p.Tenant).Str("task", TypeExpireAbandoned).Logger()

	err := tenant.Run(ctx, p.Tenant, func(ctx context.Context) error {
		run := func(ctx context.Context) error {
			n, err := h.Carts.ExpireAbandoned(ctx, p.Days)
			if err != nil {
				return err
			}
			logger.Info().Int64("deleted", n).Int("days", p.Days).Msg("cart sweep finished")
			return nil
		}
		if h.Locker == nil {
			return run(ctx)
		}
		return h.Locker.TryTenantLock(ctx, p.Tenant, lockName, h.lockTTL(), run)
	})
	if errors.Is(err, lock.ErrLocked) {
		logger.Debug().Msg("cart sweep already running elsewhere")
		return nil
	}
	return err
}

func (h *Handler) lockTTL() time.Duration {
	if h.LockTTL <= 0 {
		return 5 * time.Minute
	}
	return h.LockTTL
}

// NewServeMux routes sweep tasks to h.
func NewServeMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeExpireAbandoned, h)
	return mux
}

// Register schedules one sweep per tenant on cronspec and returns the entry ids.
func Register(s *asynq.Scheduler, cronspec string, tenants []string, days int) ([]string, error) {
	ids := make([]string, 0, len(tenants))
	for _, id := range tenants {
		task, err := NewExpireTask(id, days)
		if err != nil {
			return nil, err
		}
		entryID, err := s.Register(cronspec, task)
		if err != nil {
			return nil, fmt.Errorf("schedule sweep for %s: %w", id, err)
		}
		ids = append(ids, entryID)
	}
	return ids, nil
}
