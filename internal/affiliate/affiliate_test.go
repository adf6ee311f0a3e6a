package affiliate

import (
	"context"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/csr-ugra/petads-pipeline/internal/db/dbtest"
	"github.com/csr-ugra/petads-pipeline/internal/log"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, opts Options) (*Service, *bun.DB, *clock) {
	t.Helper()

	connection := dbtest.New(t)
	c := newClock()

	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = c.Now
	}
	if opts.Workers == 0 {
		opts.Workers = 3
	}

	return NewService(connection, opts), connection, c
}

func addNetwork(t *testing.T, connection bun.IDB, name string, settings map[string]interface{}) *db.AffiliateNetworkModel {
	t.Helper()

	network := &db.AffiliateNetworkModel{
		Name:                 name,
		PartnerId:            "petads-21",
		CommissionRate:       4.5,
		UpdateFrequencyHours: 24,
		IsActive:             true,
		Settings:             settings,
		CreatedAt:            time.Now().UTC(),
	}
	require.NoError(t, db.InsertNetwork(context.Background(), connection, network))

	return network
}

func addProduct(t *testing.T, connection bun.IDB, networkId int64, externalId string, price float64, lastCheck *time.Time) *db.AffiliateProductModel {
	t.Helper()

	now := time.Now().UTC()
	product := &db.AffiliateProductModel{
		NetworkId:      networkId,
		ExternalId:     externalId,
		Title:          "Orthopedic Dog Bed " + externalId,
		Description:    "Memory foam bed for senior dogs.",
		Price:          price,
		Currency:       "EUR",
		Category:       "dogs",
		Subcategory:    "beds",
		Brand:          "Dreamy",
		Rating:         4.6,
		ReviewCount:    120,
		IsActive:       true,
		LastPriceCheck: lastCheck,
		AffiliateLink:  "https://partner.example.com/" + externalId,
		Tags:           []string{"dogs", "beds", "Dreamy", "en", "pets"},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, db.InsertProduct(context.Background(), connection, product))

	return product
}
