// Package ingest runs the listing ingestion job: every active scraping source
// is fetched, its listing nodes are extracted and classified, and relevant
// listings are upserted by their source url.
package ingest

import (
	"context"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/classify"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/csr-ugra/petads-pipeline/internal/fetch"
	"github.com/csr-ugra/petads-pipeline/internal/log"
	"github.com/csr-ugra/petads-pipeline/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
	"time"
)

const (
	// MaxContainers bounds how many listing nodes of one source are processed
	// per run.
	MaxContainers = 100

	minTitleLength  = 5
	defaultCurrency = "EUR"
)

type Fetcher interface {
	Fetch(ctx context.Context, target fetch.Target) ([]byte, error)
}

type Result struct {
	Source       *db.ScrapingSourceModel
	Success      bool
	ScrapedCount int
	Skipped      int
	Error        error
	ItemErrors   []error
}

// Details is the audit representation of a source outcome.
func (r *Result) Details() map[string]interface{} {
	details := map[string]interface{}{
		"source":  r.Source.Name,
		"success": r.Success,
	}

	if r.Success {
		details["scraped_count"] = r.ScrapedCount
		details["skipped"] = r.Skipped
	} else if r.Error != nil {
		details["error"] = r.Error.Error()
	}

	if len(r.ItemErrors) > 0 {
		itemErrors := make([]string, 0, len(r.ItemErrors))
		for _, err := range r.ItemErrors {
			itemErrors = append(itemErrors, err.Error())
		}
		details["item_errors"] = itemErrors
	}

	return details
}

type Options struct {
	Workers int
	DryRun  bool
	Logger  log.Logger
	Now     func() time.Time
}

type Job struct {
	connection bun.IDB
	fetcher    Fetcher
	classifier *classify.Classifier
	locks      *util.KeyLock
	workers    int
	dryRun     bool
	logger     log.Logger
	now        func() time.Time
}

func New(connection bun.IDB, fetcher Fetcher, classifier *classify.Classifier, opts Options) *Job {
	job := &Job{
		connection: connection,
		fetcher:    fetcher,
		classifier: classifier,
		locks:      util.NewKeyLock(),
		workers:    opts.Workers,
		dryRun:     opts.DryRun,
		logger:     opts.Logger,
		now:        opts.Now,
	}

	if job.workers < 1 {
		job.workers = 1
	}
	if job.logger == nil {
		job.logger = log.WithJob("scrape")
	}
	if job.now == nil {
		job.now = func() time.Time { return time.Now().UTC() }
	}

	return job
}

// Run processes every active source and returns one result per source, in
// source order. Only failures to load sources or categories are returned as
// an error; source and item failures are recorded on the results.
func (j *Job) Run(ctx context.Context) ([]*Result, error) {
	sources, err := db.GetActiveSources(ctx, j.connection)
	if err != nil {
		return nil, fmt.Errorf("error loading scraping sources: %w", err)
	}
	j.logger.WithField("SourceCount", len(sources)).Info("loaded {SourceCount} active sources")

	categories, err := db.GetCategoryIdsBySlug(ctx, j.connection)
	if err != nil {
		return nil, fmt.Errorf("error loading categories: %w", err)
	}

	startedAt := j.now()
	results := make([]*Result, len(sources))

	g := new(errgroup.Group)
	g.SetLimit(j.workers)

	for i, source := range sources {
		g.Go(func() error {
			results[i] = j.processSource(ctx, source, categories, startedAt)
			return nil
		})
	}
	_ = g.Wait()

	if j.dryRun {
		j.logger.Debug("dry run, not touching source timestamps")
		return results, nil
	}

	ids := make([]int64, 0, len(sources))
	for _, source := range sources {
		ids = append(ids, source.Id)
	}

	// every source is stamped, including ones that failed, timed out or
	// yielded nothing
	if _, err = db.TouchSourcesScraped(context.WithoutCancel(ctx), j.connection, ids, j.now()); err != nil {
		j.logger.WithError(err).Error("error updating last scraped timestamps")
	}

	return results, nil
}

func (j *Job) processSource(ctx context.Context, source *db.ScrapingSourceModel, categories map[string]int64, scrapedAt time.Time) *Result {
	logger := j.logger.WithFields(logrus.Fields{
		"SourceId":   source.Id,
		"SourceName": source.Name,
		"Url":        source.ScrapeUrl,
	})

	result := &Result{Source: source}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	body, err := j.fetcher.Fetch(ctx, fetch.Target{Url: source.ScrapeUrl, RenderJs: source.RenderJs})
	if err != nil {
		logger.WithError(err).Warn("failed to fetch source {SourceName}")
		result.Error = err
		return result
	}

	listings, skipped, itemErrors, err := j.parse(body, source, categories, scrapedAt)
	if err != nil {
		logger.WithError(err).Warn("failed to parse source {SourceName}")
		result.Error = err
		return result
	}

	result.Skipped = skipped
	result.ItemErrors = itemErrors

	for _, listing := range listings {
		if j.dryRun {
			result.ScrapedCount++
			continue
		}

		err = j.locks.With(listing.SourceUrl, func() error {
			return db.UpsertListing(ctx, j.connection, listing)
		})
		if err != nil {
			logger.WithError(err).WithField("ListingUrl", listing.SourceUrl).Warn("failed to save listing {ListingUrl}")
			result.ItemErrors = append(result.ItemErrors, fmt.Errorf("save %s: %w", listing.SourceUrl, err))
			continue
		}

		result.ScrapedCount++
	}

	result.Success = true

	logger.WithFields(logrus.Fields{
		"ScrapedCount": result.ScrapedCount,
		"Skipped":      result.Skipped,
		"ItemErrors":   len(result.ItemErrors),
	}).Info("scraped {ScrapedCount} listings from {SourceName}")

	return result
}
