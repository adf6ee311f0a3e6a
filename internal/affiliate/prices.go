package affiliate

import (
	"context"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
)

const (
	MinPrice = 0.99

	AvailabilityInStock = "in_stock"

	maxPriceStep = 0.05
)

type PriceQuote struct {
	Price        float64
	Availability string
}

// PriceChecker looks up the current price of a product.
type PriceChecker interface {
	Check(ctx context.Context, product *db.AffiliateProductModel) (PriceQuote, error)
}

// RandomWalk moves the stored price by at most 5% in either direction. It
// stands in until partners expose a price api.
type RandomWalk struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomWalk(seed int64) *RandomWalk {
	return &RandomWalk{rnd: rand.New(rand.NewSource(seed))}
}

func (w *RandomWalk) Check(_ context.Context, product *db.AffiliateProductModel) (PriceQuote, error) {
	w.mu.Lock()
	step := (w.rnd.Float64()*2 - 1) * maxPriceStep
	w.mu.Unlock()

	return PriceQuote{
		Price:        product.Price * (1 + step),
		Availability: AvailabilityInStock,
	}, nil
}

// ClampPrice rounds to cents and never returns less than MinPrice.
func ClampPrice(v float64) float64 {
	if math.IsNaN(v) || v < MinPrice {
		return MinPrice
	}

	return math.Round(v*100) / 100
}

// RefreshPrices re-prices up to PriceBatchSize active products whose price is
// older than StalenessWindow. Each refreshed product gets exactly one history
// row, written in the same transaction as the new price.
func (s *Service) RefreshPrices(ctx context.Context) (int, error) {
	now := s.now()
	cutoff := now.Add(-StalenessWindow)

	products, err := db.GetStaleProducts(ctx, s.connection, cutoff, PriceBatchSize)
	if err != nil {
		return 0, fmt.Errorf("error loading stale products: %w", err)
	}
	s.logger.WithField("ProductCount", len(products)).Info("refreshing prices of {ProductCount} products")

	var updated atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, product := range products {
		g.Go(func() error {
			logger := s.logger.WithFields(logrus.Fields{
				"ProductId":  product.Id,
				"ExternalId": product.ExternalId,
			})

			if err := s.refreshPrice(ctx, product); err != nil {
				logger.WithError(err).Warn("failed to refresh price of product {ProductId}")
				return nil
			}

			updated.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(updated.Load()), nil
}

func (s *Service) refreshPrice(ctx context.Context, product *db.AffiliateProductModel) error {
	quote, err := s.prices.Check(ctx, product)
	if err != nil {
		return fmt.Errorf("error checking price: %w", err)
	}

	newPrice := ClampPrice(quote.Price)
	availability := quote.Availability
	if availability == "" {
		availability = AvailabilityInStock
	}

	if s.dryRun {
		return nil
	}

	checkedAt := s.now()

	return s.connection.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := db.UpdateProductPrice(ctx, tx, product.Id, newPrice, checkedAt); err != nil {
			return err
		}

		return db.InsertPriceHistory(ctx, tx, &db.AffiliatePriceHistoryModel{
			ProductId:     product.Id,
			Price:         newPrice,
			OriginalPrice: product.OriginalPrice,
			Availability:  availability,
			RecordedAt:    checkedAt,
		})
	})
}
