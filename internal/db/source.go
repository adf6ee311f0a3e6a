package db

import (
	"context"
	"github.com/uptrace/bun"
	"time"
)

func GetActiveSources(ctx context.Context, connection bun.IDB) (sources []*ScrapingSourceModel, err error) {
	err = connection.NewSelect().
		Model(&sources).
		Where("is_active = ?", true).
		Order("id").
		Scan(ctx)

	return sources, err
}

func SaveSource(ctx context.Context, connection bun.IDB, source *ScrapingSourceModel) error {
	_, err := connection.NewInsert().Model(source).Exec(ctx)

	return err
}

func GetSource(ctx context.Context, connection bun.IDB, id int64) (*ScrapingSourceModel, error) {
	source := new(ScrapingSourceModel)
	err := connection.NewSelect().Model(source).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}

	return source, nil
}

// TouchSourcesScraped stamps last_scraped_at on every given source, whether or
// not the run produced listings for it.
func TouchSourcesScraped(ctx context.Context, connection bun.IDB, ids []int64, at time.Time) (affectedCount int, err error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := connection.NewUpdate().
		Model((*ScrapingSourceModel)(nil)).
		Set("last_scraped_at = ?", at).
		Where("id IN (?)", bun.In(ids)).
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
