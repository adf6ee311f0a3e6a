package db

import (
	"context"
	"github.com/uptrace/bun"
	"time"
)

func ContentExists(ctx context.Context, connection bun.IDB, productId int64) (bool, error) {
	return connection.NewSelect().
		Model((*AffiliateContentModel)(nil)).
		Where("product_id = ?", productId).
		Exists(ctx)
}

// InsertContent writes content for a product unless the product already has
// some. It reports whether a row was written.
func InsertContent(ctx context.Context, connection bun.IDB, content *AffiliateContentModel) (bool, error) {
	res, err := connection.NewInsert().
		Model(content).
		On("CONFLICT (product_id) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	c, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return c > 0, nil
}

func GetContentByProduct(ctx context.Context, connection bun.IDB, productId int64) (*AffiliateContentModel, error) {
	content := new(AffiliateContentModel)
	err := connection.NewSelect().Model(content).Where("product_id = ?", productId).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}

	return content, nil
}

// PublishDueContent flips every unpublished row whose publish time has passed.
// Published rows are never touched, so a second run is a no-op.
func PublishDueContent(ctx context.Context, connection bun.IDB, now time.Time) (affectedCount int, err error) {
	res, err := connection.NewUpdate().
		Model((*AffiliateContentModel)(nil)).
		Set("is_published = ?", true).
		Where("is_published = ?", false).
		Where("publish_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	c, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(c), nil
}
