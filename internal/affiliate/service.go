// Package affiliate keeps the affiliate catalog in sync: partner products are
// upserted per network, prices are refreshed and recorded, product copy is
// generated once per product and published on schedule.
package affiliate

import (
	"github.com/csr-ugra/petads-pipeline/internal/copywriter"
	"github.com/csr-ugra/petads-pipeline/internal/log"
	"github.com/csr-ugra/petads-pipeline/internal/util"
	"github.com/uptrace/bun"
	"time"
)

const (
	StalenessWindow  = 24 * time.Hour
	PriceBatchSize   = 10
	ContentBatchSize = 5
)

type Options struct {
	Catalog   CatalogSource
	Prices    PriceChecker
	Generator copywriter.Generator
	Workers   int
	DryRun    bool
	Logger    log.Logger
	Now       func() time.Time
}

type Service struct {
	connection bun.IDB
	catalog    CatalogSource
	prices     PriceChecker
	generator  copywriter.Generator
	locks      *util.KeyLock
	workers    int
	dryRun     bool
	logger     log.Logger
	now        func() time.Time
}

func NewService(connection bun.IDB, opts Options) *Service {
	s := &Service{
		connection: connection,
		catalog:    opts.Catalog,
		prices:     opts.Prices,
		generator:  opts.Generator,
		locks:      util.NewKeyLock(),
		workers:    opts.Workers,
		dryRun:     opts.DryRun,
		logger:     opts.Logger,
		now:        opts.Now,
	}

	if s.catalog == nil {
		s.catalog = StaticCatalog{}
	}
	if s.prices == nil {
		s.prices = NewRandomWalk(time.Now().UnixNano())
	}
	if s.generator == nil {
		s.generator = copywriter.Unavailable{}
	}
	if s.workers < 1 {
		s.workers = 1
	}
	if s.logger == nil {
		s.logger = log.WithJob("affiliate")
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}

	return s
}
