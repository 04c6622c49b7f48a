package dbrouter

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-tenant-cart/internal/obs"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pools owns one pgx pool per partition and the router over them.
type Pools struct {
	Router *Router[DBTX]
	pools  map[string]*pgxpool.Pool
	dsns   map[string]string
}

// Options configures pool creation.
type Options struct {
	DefaultDSN string
	TenantDSNs map[string]string
	// Tenants lists registered tenants. Each one other than the default
	// needs an entry in TenantDSNs.
	Tenants         []string
	ApplicationName string
	Logger          zerolog.Logger
}

// Open connects a pool for the default partition and every tenant DSN.
// Tenants sharing a DSN share a pool. A registered tenant without a DSN is an
// error rather than a silent share of the default database.
func Open(ctx context.Context, opts Options) (*Pools, error) {
	if opts.DefaultDSN == "" {
		return nil, errors.New("dbrouter: default DSN is required")
	}
	for _, id := range opts.Tenants {
		if id != "" && id != tenant.DefaultID && opts.TenantDSNs[id] == "" {
			return nil, fmt.Errorf("dbrouter: tenant %q has no DSN", id)
		}
	}
	p := &Pools{pools: map[string]*pgxpool.Pool{}, dsns: map[string]string{}}
	byDSN := map[string]*pgxpool.Pool{}
	ownerOf := map[string]string{}

	connect := func(id, dsn string) (*pgxpool.Pool, error) {
		if pool, ok := byDSN[dsn]; ok {
			return pool, nil
		}
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse database config for %s: %w", id, err)
		}
		cfg.ConnConfig.Tracer = obs.PGXTracer{Partition: id}
		if cfg.ConnConfig.RuntimeParams == nil {
			cfg.ConnConfig.RuntimeParams = map[string]string{}
		}
		if opts.ApplicationName != "" {
			cfg.ConnConfig.RuntimeParams["application_name"] = opts.ApplicationName
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect database for %s: %w", id, err)
		}
		byDSN[dsn] = pool
		ownerOf[dsn] = id
		return pool, nil
	}

	defaultPool, err := connect(tenant.DefaultID, opts.DefaultDSN)
	if err != nil {
		return nil, err
	}
	p.pools[tenant.DefaultID] = defaultPool
	p.dsns[tenant.DefaultID] = opts.DefaultDSN
	p.Router = New[DBTX](defaultPool, opts.Logger)

	ids := make([]string, 0, len(opts.TenantDSNs))
	for id := range opts.TenantDSNs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		dsn := opts.TenantDSNs[id]
		if id == "" || dsn == "" || id == tenant.DefaultID {
			continue
		}
		if owner, ok := ownerOf[dsn]; ok {
			p.Router.Share(id, owner)
			opts.Logger.Warn().Str("tenant", id).Str("partition", owner).Msg("tenant configured to share a database")
			continue
		}
		pool, err := connect(id, dsn)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.pools[id] = pool
		p.dsns[id] = dsn
		p.Router.Register(id, pool)
		opts.Logger.Info().Str("tenant", id).Msg("tenant partition registered")
	}
	return p, nil
}

// Ping checks every distinct pool.
func (p *Pools) Ping(ctx context.Context) error {
	seen := map[*pgxpool.Pool]bool{}
	for id, pool := range p.pools {
		if seen[pool] {
			continue
		}
		seen[pool] = true
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping %s: %w", id, err)
		}
	}
	return nil
}

// DSNs returns the connection string per partition, for migrations.
func (p *Pools) DSNs() map[string]string {
	out := make(map[string]string, len(p.dsns))
	for id, dsn := range p.dsns {
		out[id] = dsn
	}
	return out
}

// Close releases every pool once.
func (p *Pools) Close() {
	if p == nil {
		return
	}
	closed := map[*pgxpool.Pool]bool{}
	for _, pool := range p.pools {
		if closed[pool] {
			continue
		}
		closed[pool] = true
		pool.Close()
	}
}
