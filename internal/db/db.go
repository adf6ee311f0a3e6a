package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/util"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

var ErrNotFound = errors.New("record not found")

func GetConnection(config *util.Config) (*bun.DB, error) {
	sqlDb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(config.DbConnectionString.Value)))
	db := bun.NewDB(sqlDb, pgdialect.New())

	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),

		// BUNDEBUG=1 logs failed queries
		// BUNDEBUG=2 logs all queries
		bundebug.FromEnv("BUNDEBUG")))

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

type index struct {
	model  interface{}
	name   string
	column string
}

var indexes = []index{
	{model: (*ListingModel)(nil), name: "listings_scraped_at_idx", column: "scraped_at"},
	{model: (*AffiliateProductModel)(nil), name: "affiliate_products_last_price_check_idx", column: "last_price_check"},
	{model: (*AffiliatePriceHistoryModel)(nil), name: "affiliate_price_history_product_id_idx", column: "product_id"},
	{model: (*AffiliateContentModel)(nil), name: "affiliate_content_publish_at_idx", column: "publish_at"},
}

// Migrate creates missing tables and indexes and seeds the static categories.
// It is safe to run repeatedly.
func Migrate(ctx context.Context, connection bun.IDB) error {
	for _, model := range Models() {
		if _, err := connection.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("error creating table for %T: %w", model, err)
		}
	}

	for _, idx := range indexes {
		_, err := connection.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("error creating index %s: %w", idx.name, err)
		}
	}

	if _, err := SeedCategories(ctx, connection); err != nil {
		return err
	}

	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	return err
}
