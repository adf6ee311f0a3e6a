package affiliate

import (
	"context"
	"errors"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/csr-ugra/petads-pipeline/internal/util"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"strings"
	"sync/atomic"
	"time"
)

const (
	seoTitleSuffix       = " | Best Price"
	maxSeoTitleLength    = 60
	maxSeoDescriptionLen = 155
	defaultCurrency      = "EUR"
)

// SyncNetworks upserts the catalog of every active network and returns how
// many products were written. Networks run concurrently; products of one
// network are written in catalog order. A network with invalid settings or an
// unavailable catalog is skipped, a product that fails to save is skipped.
func (s *Service) SyncNetworks(ctx context.Context) (int, error) {
	networks, err := db.GetActiveNetworks(ctx, s.connection)
	if err != nil {
		return 0, fmt.Errorf("error loading affiliate networks: %w", err)
	}
	s.logger.WithField("NetworkCount", len(networks)).Info("syncing {NetworkCount} affiliate networks")

	var written atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, network := range networks {
		g.Go(func() error {
			written.Add(int64(s.syncNetwork(ctx, network)))
			return nil
		})
	}
	_ = g.Wait()

	return int(written.Load()), nil
}

func (s *Service) syncNetwork(ctx context.Context, network *db.AffiliateNetworkModel) (written int) {
	logger := s.logger.WithFields(logrus.Fields{
		"NetworkId":   network.Id,
		"NetworkName": network.Name,
	})

	settings, err := ParseSettings(network)
	if err != nil {
		logger.WithError(err).Error("skipping network {NetworkName}")
		return 0
	}

	products, err := s.catalog.Products(ctx, network, settings)
	if err != nil {
		logger.WithError(err).Error("failed to load catalog of {NetworkName}")
		return 0
	}

	for _, p := range products {
		if ctx.Err() != nil {
			break
		}

		if err = s.syncProduct(ctx, network, settings, p); err != nil {
			logger.WithError(err).WithField("ExternalId", p.ExternalId).Warn("failed to save product {ExternalId}")
			continue
		}
		written++
	}

	logger.WithFields(logrus.Fields{
		"ProductCount":   len(products),
		"WrittenCount":   written,
		"CatalogVersion": CatalogVersion,
	}).Info("synced {WrittenCount} products of {NetworkName}")

	return written
}

func (s *Service) syncProduct(ctx context.Context, network *db.AffiliateNetworkModel, settings Settings, p CatalogProduct) error {
	if s.dryRun {
		return nil
	}

	key := fmt.Sprintf("product/%d/%s", network.Id, p.ExternalId)

	return s.locks.With(key, func() error {
		now := s.now()

		existing, err := db.GetProduct(ctx, s.connection, network.Id, p.ExternalId)
		switch {
		case err == nil:
			applyCatalogFields(existing, p, now)
			return db.UpdateProductCatalogFields(ctx, s.connection, existing)
		case errors.Is(err, db.ErrNotFound):
			return db.InsertProduct(ctx, s.connection, newProduct(network, settings, p, now))
		default:
			return err
		}
	})
}

func applyCatalogFields(product *db.AffiliateProductModel, p CatalogProduct, now time.Time) {
	product.Title = p.Title
	product.Description = p.Description
	product.Price = p.Price
	product.OriginalPrice = p.OriginalPrice
	product.ImageUrl = p.ImageUrl
	product.Rating = p.Rating
	product.ReviewCount = p.ReviewCount
	product.IsFeatured = p.IsFeatured
	product.LastPriceCheck = &now
	product.UpdatedAt = now
}

func newProduct(network *db.AffiliateNetworkModel, settings Settings, p CatalogProduct, now time.Time) *db.AffiliateProductModel {
	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	product := &db.AffiliateProductModel{
		NetworkId:      network.Id,
		ExternalId:     p.ExternalId,
		Currency:       currency,
		Category:       p.Category,
		Subcategory:    p.Subcategory,
		Brand:          p.Brand,
		IsActive:       true,
		AffiliateLink:  settings.Link(p.ExternalId),
		SeoTitle:       SeoTitle(p.Title),
		SeoDescription: SeoDescription(p.Description, p.Title),
		Tags:           Tags(p.Category, p.Subcategory, p.Brand, settings.Locale()),
		CreatedAt:      now,
	}
	applyCatalogFields(product, p, now)

	return product
}

// SeoTitle appends the price suffix, shortening the title so the result
// stays within 60 characters.
func SeoTitle(title string) string {
	limit := maxSeoTitleLength - len([]rune(seoTitleSuffix))

	return util.Truncate(title, limit) + seoTitleSuffix
}

func SeoDescription(description, title string) string {
	if strings.TrimSpace(description) == "" {
		description = title
	}

	return util.Truncate(util.Normalize(description), maxSeoDescriptionLen)
}

// Tags is [category, subcategory, brand, locale, "pets"] without empty entries.
func Tags(category, subcategory, brand, locale string) []string {
	tags := make([]string, 0, 5)
	for _, tag := range []string{category, subcategory, brand, locale, "pets"} {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// EnsureNetwork creates a network by name unless it already exists and
// returns the stored row either way.
func (s *Service) EnsureNetwork(ctx context.Context, network *db.AffiliateNetworkModel) (*db.AffiliateNetworkModel, bool, error) {
	existing, err := db.GetNetworkByName(ctx, s.connection, network.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, err
	}

	if _, err = ParseSettings(network); err != nil {
		return nil, false, err
	}

	if network.CreatedAt.IsZero() {
		network.CreatedAt = s.now()
	}
	if network.UpdateFrequencyHours == 0 {
		network.UpdateFrequencyHours = 24
	}

	if err = db.InsertNetwork(ctx, s.connection, network); err != nil {
		return nil, false, err
	}

	return network, true, nil
}
