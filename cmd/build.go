package cmd

import (
	"context"
	"github.com/csr-ugra/petads-pipeline/internal/affiliate"
	"github.com/csr-ugra/petads-pipeline/internal/classify"
	"github.com/csr-ugra/petads-pipeline/internal/copywriter"
	"github.com/csr-ugra/petads-pipeline/internal/fetch"
	"github.com/csr-ugra/petads-pipeline/internal/ingest"
	"github.com/csr-ugra/petads-pipeline/internal/log"
	"github.com/csr-ugra/petads-pipeline/internal/pipeline"
	"github.com/csr-ugra/petads-pipeline/internal/util"
	"github.com/uptrace/bun"
	"io"
	"time"
)

const maxWorkers = 8

type components struct {
	orchestrator *pipeline.Orchestrator
	closers      []io.Closer
}

func (c *components) Close() {
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			log.GetLogger().WithError(err).Warn("error releasing resource")
		}
	}
}

func build(ctx context.Context, connection bun.IDB, config *util.Config, dryRun bool) (*components, error) {
	logger := log.GetLogger()
	result := &components{}

	workers, err := config.WorkerCount.Int()
	if err != nil {
		return nil, err
	}
	workers = min(max(workers, 1), maxWorkers)

	jobTimeout, err := config.JobTimeout.Duration()
	if err != nil {
		return nil, err
	}

	fetchOptions, err := fetch.OptionsFromConfig(config)
	if err != nil {
		return nil, err
	}
	fetchOptions.Logger = log.WithJob("fetch")

	if config.DevtoolsWebsocketUrl.Value != "" {
		renderer := fetch.NewBrowserRenderer(config.DevtoolsWebsocketUrl.Value)
		fetchOptions.Renderer = renderer
		result.closers = append(result.closers, renderer)
	} else {
		logger.Warn("no devtools url configured, sources that need rendering are fetched as plain html")
	}

	fetcher := fetch.New(fetchOptions)

	scraper := ingest.New(connection, fetcher, classify.New(), ingest.Options{
		Workers: workers,
		DryRun:  dryRun,
	})

	var generator copywriter.Generator = copywriter.Unavailable{}
	if config.GeminiApiKey.Value != "" {
		gemini, err := copywriter.NewGemini(ctx, config.GeminiApiKey.Value, config.GeminiModel.Value, fetchOptions.Timeout)
		if err != nil {
			logger.WithError(err).Warn("generative text service unavailable, content will use the template")
		} else {
			generator = gemini
			result.closers = append(result.closers, gemini)
		}
	} else {
		logger.Warn("no gemini api key configured, content will use the template")
	}

	catalog := affiliate.NewService(connection, affiliate.Options{
		Catalog:   affiliate.NewFeedCatalog(fetcher.Client(), log.WithJob("catalog")),
		Prices:    affiliate.NewRandomWalk(time.Now().UnixNano()),
		Generator: generator,
		Workers:   workers,
		DryRun:    dryRun,
	})

	result.orchestrator = pipeline.New(scraper, catalog, pipeline.DbRecorder{Connection: connection}, pipeline.Options{
		StageTimeout: jobTimeout,
	})

	return result, nil
}
