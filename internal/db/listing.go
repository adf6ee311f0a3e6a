package db

import (
	"context"
	"github.com/uptrace/bun"
)

// UpsertListing inserts a listing or overwrites the mutable fields of the row
// with the same source_url.
func UpsertListing(ctx context.Context, connection bun.IDB, listing *ListingModel) error {
	_, err := connection.NewInsert().
		Model(listing).
		On("CONFLICT (source_url) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("price = EXCLUDED.price").
		Set("currency = EXCLUDED.currency").
		Set("location = EXCLUDED.location").
		Set("images = EXCLUDED.images").
		Set("category_id = EXCLUDED.category_id").
		Set("breed = EXCLUDED.breed").
		Set("age = EXCLUDED.age").
		Set("gender = EXCLUDED.gender").
		Set("source_name = EXCLUDED.source_name").
		Set("scraped_at = EXCLUDED.scraped_at").
		Set("is_active = EXCLUDED.is_active").
		Returning("NULL").
		Exec(ctx)

	return err
}

func GetListingBySourceUrl(ctx context.Context, connection bun.IDB, sourceUrl string) (*ListingModel, error) {
	listing := new(ListingModel)
	err := connection.NewSelect().Model(listing).Where("source_url = ?", sourceUrl).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}

	return listing, nil
}

// GetRecentListings is the read side used by the site: active listings, most
// recently scraped first.
func GetRecentListings(ctx context.Context, connection bun.IDB, categoryId *int64, limit int) (listings []*ListingModel, err error) {
	q := connection.NewSelect().
		Model(&listings).
		Where("is_active = ?", true).
		OrderExpr("scraped_at DESC, id DESC").
		Limit(limit)

	if categoryId != nil {
		q = q.Where("category_id = ?", *categoryId)
	}

	err = q.Scan(ctx)

	return listings, err
}
