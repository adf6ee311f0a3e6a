package affiliate

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/csr-ugra/petads-pipeline/internal/fetch"
	"github.com/csr-ugra/petads-pipeline/internal/log"
	"github.com/go-resty/resty/v2"
)

// CatalogVersion identifies the bundled product lists. Bump it whenever the
// lists below change so synced rows can be traced back to a catalog.
const CatalogVersion = "2024.2"

type CatalogProduct struct {
	ExternalId    string   `json:"external_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	Currency      string   `json:"currency"`
	ImageUrl      string   `json:"image_url"`
	Category      string   `json:"category"`
	Subcategory   string   `json:"subcategory"`
	Brand         string   `json:"brand"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"review_count"`
	IsFeatured    bool     `json:"is_featured"`
}

// CatalogSource returns the current product list of a network.
type CatalogSource interface {
	Products(ctx context.Context, network *db.AffiliateNetworkModel, settings Settings) ([]CatalogProduct, error)
}

func amount(v float64) *float64 {
	return &v
}

var staticCatalogs = map[Kind][]CatalogProduct{
	KindAmazon: {
		{
			ExternalId:    "B0002AR0II",
			Title:         "KONG Classic Dog Toy, Medium",
			Description:   "Durable natural rubber chew toy that can be stuffed with treats to keep dogs busy and mentally stimulated.",
			Price:         12.99,
			OriginalPrice: amount(15.99),
			Currency:      "EUR",
			ImageUrl:      "https://images.example-cdn.com/amazon/B0002AR0II.jpg",
			Category:      "dogs",
			Subcategory:   "toys",
			Brand:         "KONG",
			Rating:        4.7,
			ReviewCount:   98213,
			IsFeatured:    true,
		},
		{
			ExternalId:  "B07FK6YX4C",
			Title:       "Furbo Dog Camera with Treat Tossing",
			Description: "Full HD pet camera with two-way audio, night vision and a treat dispenser controlled from your phone.",
			Price:       169.00,
			Currency:    "EUR",
			ImageUrl:    "https://images.example-cdn.com/amazon/B07FK6YX4C.jpg",
			Category:    "dogs",
			Subcategory: "electronics",
			Brand:       "Furbo",
			Rating:      4.4,
			ReviewCount: 31542,
		},
		{
			ExternalId:    "B01N6QJ5IR",
			Title:         "Catit Senses 2.0 Flower Fountain",
			Description:   "Three litre drinking fountain with triple filtration that encourages cats to drink more water.",
			Price:         29.49,
			OriginalPrice: amount(34.99),
			Currency:      "EUR",
			ImageUrl:      "https://images.example-cdn.com/amazon/B01N6QJ5IR.jpg",
			Category:      "cats",
			Subcategory:   "feeding",
			Brand:         "Catit",
			Rating:        4.3,
			ReviewCount:   22810,
		},
	},
	KindAliexpress: {
		{
			ExternalId:  "1005004417586620",
			Title:       "Reflective No-Pull Dog Harness",
			Description: "Adjustable breathable mesh harness with reflective straps and a front clip for leash training.",
			Price:       8.59,
			Currency:    "EUR",
			ImageUrl:    "https://images.example-cdn.com/aliexpress/1005004417586620.jpg",
			Category:    "dogs",
			Subcategory: "walking",
			Brand:       "Truelove",
			Rating:      4.8,
			ReviewCount: 5120,
			IsFeatured:  true,
		},
		{
			ExternalId:    "1005005202341778",
			Title:         "Self-Cleaning Cat Slicker Brush",
			Description:   "Grooming brush with retractable pins that removes loose fur and tangles in one click.",
			Price:         4.19,
			OriginalPrice: amount(6.99),
			Currency:      "EUR",
			ImageUrl:      "https://images.example-cdn.com/aliexpress/1005005202341778.jpg",
			Category:      "cats",
			Subcategory:   "grooming",
			Brand:         "Hoopet",
			Rating:        4.6,
			ReviewCount:   8734,
		},
		{
			ExternalId:  "1005003098812345",
			Title:       "Bird Cage Swing with Natural Wood Perch",
			Description: "Colourful hanging swing toy with wooden beads for parakeets, budgies and cockatiels.",
			Price:       3.25,
			Currency:    "EUR",
			ImageUrl:    "https://images.example-cdn.com/aliexpress/1005003098812345.jpg",
			Category:    "birds",
			Subcategory: "toys",
			Brand:       "",
			Rating:      4.5,
			ReviewCount: 1290,
		},
	},
	KindGeneric: {
		{
			ExternalId:  "AQ-FILTER-60",
			Title:       "Internal Aquarium Filter 600 l/h",
			Description: "Quiet internal filter with sponge and carbon media for freshwater tanks up to 120 litres.",
			Price:       24.90,
			Currency:    "EUR",
			ImageUrl:    "https://images.example-cdn.com/generic/AQ-FILTER-60.jpg",
			Category:    "fish",
			Subcategory: "aquarium",
			Brand:       "AquaClear",
			Rating:      4.2,
			ReviewCount: 640,
		},
		{
			ExternalId:    "SA-HAY-2KG",
			Title:         "Timothy Hay for Rabbits and Guinea Pigs, 2 kg",
			Description:   "High fibre second cut timothy hay that supports healthy digestion and dental wear.",
			Price:         14.50,
			OriginalPrice: amount(16.00),
			Currency:      "EUR",
			ImageUrl:      "https://images.example-cdn.com/generic/SA-HAY-2KG.jpg",
			Category:      "small-animals",
			Subcategory:   "food",
			Brand:         "Oxbow",
			Rating:        4.9,
			ReviewCount:   2210,
			IsFeatured:    true,
		},
	},
}

// StaticCatalog serves the bundled product list of a network kind.
type StaticCatalog struct{}

func (StaticCatalog) Products(_ context.Context, _ *db.AffiliateNetworkModel, settings Settings) ([]CatalogProduct, error) {
	products, ok := staticCatalogs[settings.Kind()]
	if !ok {
		return nil, fmt.Errorf("no catalog for network kind %s", settings.Kind())
	}

	result := make([]CatalogProduct, len(products))
	copy(result, products)

	return result, nil
}

// FeedCatalog reads a JSON product feed for generic networks that configure
// one and serves the static catalog otherwise, or when the feed fails.
type FeedCatalog struct {
	client   *resty.Client
	fallback CatalogSource
	logger   log.Logger
}

func NewFeedCatalog(client *resty.Client, logger log.Logger) *FeedCatalog {
	if logger == nil {
		logger = log.GetLogger()
	}

	return &FeedCatalog{client: client, fallback: StaticCatalog{}, logger: logger}
}

func (c *FeedCatalog) Products(ctx context.Context, network *db.AffiliateNetworkModel, settings Settings) ([]CatalogProduct, error) {
	generic, ok := settings.(GenericSettings)
	if !ok || generic.FeedUrl == "" {
		return c.fallback.Products(ctx, network, settings)
	}

	products, err := c.fetchFeed(ctx, generic.FeedUrl)
	if err != nil {
		c.logger.WithError(err).WithField("FeedUrl", generic.FeedUrl).Warn("product feed unavailable, using bundled catalog")
		return c.fallback.Products(ctx, network, settings)
	}

	return products, nil
}

func (c *FeedCatalog) fetchFeed(ctx context.Context, feedUrl string) ([]CatalogProduct, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(feedUrl)
	if err != nil {
		return nil, fmt.Errorf("error requesting feed %s: %w", feedUrl, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("feed %s answered with status %d", feedUrl, resp.StatusCode())
	}

	// feeds are often served as text/plain or octet-stream, so the body is
	// decoded here rather than left to the client's content type detection
	body, err := fetch.Body(resp)
	if err != nil {
		return nil, fmt.Errorf("error reading feed %s: %w", feedUrl, err)
	}

	var products []CatalogProduct
	if err = json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("error parsing feed %s: %w", feedUrl, err)
	}

	valid := products[:0]
	for _, p := range products {
		if p.ExternalId == "" || p.Title == "" {
			continue
		}
		valid = append(valid, p)
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf("feed %s has no usable products", feedUrl)
	}

	return valid, nil
}
