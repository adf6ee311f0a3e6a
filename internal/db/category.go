package db

import (
	"context"
	"github.com/uptrace/bun"
)

var DefaultCategories = []CategoryModel{
	{Name: "Dogs", Slug: "dogs", Icon: "dog"},
	{Name: "Cats", Slug: "cats", Icon: "cat"},
	{Name: "Birds", Slug: "birds", Icon: "bird"},
	{Name: "Fish", Slug: "fish", Icon: "fish"},
	{Name: "Small Animals", Slug: "small-animals", Icon: "rabbit"},
	{Name: "Reptiles", Slug: "reptiles", Icon: "turtle"},
}

func SeedCategories(ctx context.Context, connection bun.IDB) (insertedCount int, err error) {
	categories := make([]*CategoryModel, 0, len(DefaultCategories))
	for i := range DefaultCategories {
		c := DefaultCategories[i]
		categories = append(categories, &c)
	}

	res, err := connection.NewInsert().
		Model(&categories).
		On("CONFLICT (slug) DO NOTHING").
		Returning("NULL").
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

func GetCategories(ctx context.Context, connection bun.IDB) (categories []*CategoryModel, err error) {
	err = connection.NewSelect().Model(&categories).Order("id").Scan(ctx)

	return categories, err
}

// GetCategoryIdsBySlug is the lookup the classifier output is resolved against.
func GetCategoryIdsBySlug(ctx context.Context, connection bun.IDB) (map[string]int64, error) {
	categories, err := GetCategories(ctx, connection)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(categories))
	for _, c := range categories {
		ids[c.Slug] = c.Id
	}

	return ids, nil
}
