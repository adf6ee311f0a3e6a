// Package dbtest opens throwaway SQLite databases with the production schema
// for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
	"testing"
)

func New(t testing.TB) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqlDb, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)

	// a single connection keeps the in-memory database alive and serializes
	// concurrent workers the way row locks would in postgres
	sqlDb.SetMaxOpenConns(1)
	sqlDb.SetMaxIdleConns(1)

	connection := bun.NewDB(sqlDb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = connection.Close()
	})

	require.NoError(t, db.Migrate(context.Background(), connection))

	return connection
}

func Count(t testing.TB, connection bun.IDB, model interface{}) int {
	t.Helper()

	n, err := connection.NewSelect().Model(model).Count(context.Background())
	require.NoError(t, err)

	return n
}
