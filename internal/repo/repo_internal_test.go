package repo

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-tenant-cart/internal/common"
)

func TestMapErr(t *testing.T) {
	require.NoError(t, mapErr(nil, "product"))
	require.ErrorIs(t, mapErr(pgx.ErrNoRows, "product"), common.ErrNotFound)
	require.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23505"}, "product"), common.ErrBusinessRule)
	require.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23503"}, "price rule"), common.ErrNotFound)

	boom := errors.New("boom")
	err := mapErr(boom, "product")
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, common.ErrNotFound)
}

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@db:5432/toko", migrateURL("postgres://u:p@db:5432/toko"))
	require.Equal(t, "pgx5://u:p@db/toko?sslmode=disable", migrateURL("postgresql://u:p@db/toko?sslmode=disable"))
	require.Equal(t, "pgx5://db/toko", migrateURL("pgx5://db/toko"))
}

func TestNotFoundUnlessAffected(t *testing.T) {
	require.ErrorIs(t, notFoundUnlessAffected(pgconn.NewCommandTag("DELETE 0"), "promotion"), common.ErrNotFound)
	require.NoError(t, notFoundUnlessAffected(pgconn.NewCommandTag("DELETE 1"), "promotion"))
}
