// Package repo implements the Postgres stores. Every call resolves its
// partition from the tenant in the context.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
	"github.com/noah-isme/toko-tenant-cart/internal/dbrouter"
)

// Router routes store calls to tenant partitions.
type Router = *dbrouter.Router[dbrouter.DBTX]

type scanner interface {
	Scan(dest ...any) error
}

func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s already exists: %w", what, common.ErrBusinessRule)
		case "23503":
			return fmt.Errorf("%s references a missing row: %w", what, common.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

func notFoundUnlessAffected(tag pgconn.CommandTag, what string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	return nil
}

func inTx(ctx context.Context, db dbrouter.DBTX, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
