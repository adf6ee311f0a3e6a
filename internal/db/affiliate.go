package db

import (
	"context"
	"github.com/uptrace/bun"
	"time"
)

func GetActiveNetworks(ctx context.Context, connection bun.IDB) (networks []*AffiliateNetworkModel, err error) {
	err = connection.NewSelect().
		Model(&networks).
		Where("is_active = ?", true).
		Order("id").
		Scan(ctx)

	return networks, err
}

func GetNetworkByName(ctx context.Context, connection bun.IDB, name string) (*AffiliateNetworkModel, error) {
	network := new(AffiliateNetworkModel)
	err := connection.NewSelect().Model(network).Where("name = ?", name).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}

	return network, nil
}

func InsertNetwork(ctx context.Context, connection bun.IDB, network *AffiliateNetworkModel) error {
	_, err := connection.NewInsert().Model(network).Exec(ctx)

	return err
}

func GetProduct(ctx context.Context, connection bun.IDB, networkId int64, externalId string) (*AffiliateProductModel, error) {
	product := new(AffiliateProductModel)
	err := connection.NewSelect().
		Model(product).
		Where("network_id = ?", networkId).
		Where("external_id = ?", externalId).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}

	return product, nil
}

func GetProductById(ctx context.Context, connection bun.IDB, id int64) (*AffiliateProductModel, error) {
	product := new(AffiliateProductModel)
	err := connection.NewSelect().Model(product).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}

	return product, nil
}

// catalogColumns are the product fields a catalog sync may overwrite; link,
// SEO fields and tags are only written on insert.
var catalogColumns = []string{
	"title",
	"description",
	"price",
	"original_price",
	"image_url",
	"rating",
	"review_count",
	"is_featured",
	"last_price_check",
	"updated_at",
}

// InsertProduct inserts a product; a concurrent insert of the same
// (network_id, external_id) degrades into an update of the catalog columns.
func InsertProduct(ctx context.Context, connection bun.IDB, product *AffiliateProductModel) error {
	q := connection.NewInsert().
		Model(product).
		On("CONFLICT (network_id, external_id) DO UPDATE")

	for _, column := range catalogColumns {
		q = q.Set("? = EXCLUDED.?", bun.Ident(column), bun.Ident(column))
	}

	_, err := q.Exec(ctx)

	return err
}

func UpdateProductCatalogFields(ctx context.Context, connection bun.IDB, product *AffiliateProductModel) error {
	_, err := connection.NewUpdate().
		Model(product).
		Column(catalogColumns...).
		WherePK().
		Exec(ctx)

	return err
}

// GetStaleProducts returns active products whose price was never checked or
// was last checked before cutoff, oldest first.
func GetStaleProducts(ctx context.Context, connection bun.IDB, cutoff time.Time, limit int) (products []*AffiliateProductModel, err error) {
	err = connection.NewSelect().
		Model(&products).
		Where("is_active = ?", true).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("last_price_check IS NULL").WhereOr("last_price_check < ?", cutoff)
		}).
		OrderExpr("last_price_check ASC, id ASC").
		Limit(limit).
		Scan(ctx)

	return products, err
}

func UpdateProductPrice(ctx context.Context, connection bun.IDB, id int64, price float64, checkedAt time.Time) error {
	_, err := connection.NewUpdate().
		Model((*AffiliateProductModel)(nil)).
		Set("price = ?", price).
		Set("last_price_check = ?", checkedAt).
		Set("updated_at = ?", checkedAt).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

// InsertPriceHistory appends a history row. History rows are never updated.
func InsertPriceHistory(ctx context.Context, connection bun.IDB, entry *AffiliatePriceHistoryModel) error {
	_, err := connection.NewInsert().Model(entry).Exec(ctx)

	return err
}

func GetPriceHistory(ctx context.Context, connection bun.IDB, productId int64) (entries []*AffiliatePriceHistoryModel, err error) {
	err = connection.NewSelect().
		Model(&entries).
		Where("product_id = ?", productId).
		Order("id").
		Scan(ctx)

	return entries, err
}

func GetProductsWithoutContent(ctx context.Context, connection bun.IDB, limit int) (products []*AffiliateProductModel, err error) {
	err = connection.NewSelect().
		Model(&products).
		Where("ap.is_active = ?", true).
		Where("NOT EXISTS (?)", connection.NewSelect().
			Model((*AffiliateContentModel)(nil)).
			ColumnExpr("1").
			Where("ac.product_id = ap.id")).
		Order("ap.id").
		Limit(limit).
		Scan(ctx)

	return products, err
}
