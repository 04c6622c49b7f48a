package health

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Pinger probes a set of database partitions.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps names the dependencies the API needs to serve traffic.
type Deps struct {
	DB    Pinger
	Redis *redis.Client
}

// Probes returns the "db" probe, which covers every routed partition, and
// the "redis" probe.
func (d Deps) Probes() map[string]Probe {
	return map[string]Probe{
		"db": func(ctx context.Context) error {
			if d.DB == nil {
				return errors.New("database not configured")
			}
			return d.DB.Ping(ctx)
		},
		"redis": func(ctx context.Context) error {
			if d.Redis == nil {
				return errors.New("redis not configured")
			}
			return d.Redis.Ping(ctx).Err()
		},
	}
}
