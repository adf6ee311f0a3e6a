// Package pipeline dispatches a single action to the ingestion job or the
// affiliate stages and leaves one audit row per run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/affiliate"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/csr-ugra/petads-pipeline/internal/ingest"
	"github.com/csr-ugra/petads-pipeline/internal/log"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"runtime/debug"
	"time"
)

const (
	ActionScrape           = "scrape"
	ActionSyncProducts     = "sync_products"
	ActionUpdatePrices     = "update_prices"
	ActionGenerateContent  = "generate_content"
	ActionPublishScheduled = "publish_scheduled"
	ActionFullSync         = "full_sync"
)

var Actions = []string{
	ActionScrape,
	ActionSyncProducts,
	ActionUpdatePrices,
	ActionGenerateContent,
	ActionPublishScheduled,
	ActionFullSync,
}

var ErrUnknownAction = errors.New("unknown action")

type Scraper interface {
	Run(ctx context.Context) ([]*ingest.Result, error)
}

type Catalog interface {
	SyncNetworks(ctx context.Context) (int, error)
	RefreshPrices(ctx context.Context) (int, error)
	GenerateContent(ctx context.Context) ([]affiliate.Generation, error)
	PublishScheduled(ctx context.Context) (int, error)
}

// Recorder persists audit rows.
type Recorder interface {
	Record(ctx context.Context, entry *db.AutomationLogModel) error
}

type DbRecorder struct {
	Connection bun.IDB
}

func (r DbRecorder) Record(ctx context.Context, entry *db.AutomationLogModel) error {
	return db.InsertAutomationLog(ctx, r.Connection, entry)
}

type Options struct {
	// StageTimeout bounds each stage. Zero means no limit beyond ctx.
	StageTimeout time.Duration
	Logger       log.Logger
	Now          func() time.Time
}

type Orchestrator struct {
	scraper  Scraper
	catalog  Catalog
	recorder Recorder
	timeout  time.Duration
	logger   log.Logger
	now      func() time.Time
}

func New(scraper Scraper, catalog Catalog, recorder Recorder, opts Options) *Orchestrator {
	o := &Orchestrator{
		scraper:  scraper,
		catalog:  catalog,
		recorder: recorder,
		timeout:  opts.StageTimeout,
		logger:   opts.Logger,
		now:      opts.Now,
	}

	if o.logger == nil {
		o.logger = log.WithJob("pipeline")
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}

	return o
}

type stage struct {
	name string
	run  func(ctx context.Context, report *Report) error
}

func (o *Orchestrator) stages(action string) ([]stage, error) {
	scrape := stage{name: ActionScrape, run: o.scrape}
	syncProducts := stage{name: ActionSyncProducts, run: func(ctx context.Context, report *Report) (err error) {
		report.ProductsSynced, err = o.catalog.SyncNetworks(ctx)
		return err
	}}
	updatePrices := stage{name: ActionUpdatePrices, run: func(ctx context.Context, report *Report) (err error) {
		report.PricesUpdated, err = o.catalog.RefreshPrices(ctx)
		return err
	}}
	generateContent := stage{name: ActionGenerateContent, run: func(ctx context.Context, report *Report) error {
		generations, err := o.catalog.GenerateContent(ctx)
		report.addGenerations(generations)
		return err
	}}
	publishScheduled := stage{name: ActionPublishScheduled, run: func(ctx context.Context, report *Report) (err error) {
		report.ContentPublished, err = o.catalog.PublishScheduled(ctx)
		return err
	}}

	switch action {
	case ActionScrape:
		return []stage{scrape}, nil
	case ActionSyncProducts:
		return []stage{syncProducts}, nil
	case ActionUpdatePrices:
		return []stage{updatePrices}, nil
	case ActionGenerateContent:
		return []stage{generateContent}, nil
	case ActionPublishScheduled:
		return []stage{publishScheduled}, nil
	case ActionFullSync:
		// later stages rely on the rows written by earlier ones
		return []stage{syncProducts, updatePrices, generateContent, publishScheduled}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, action)
	}
}

// Run executes the action and writes exactly one audit row for it, also when
// a stage or the orchestrator itself panics. Stage failures never abort the
// remaining stages and are only reported through the returned report and the
// audit row.
func (o *Orchestrator) Run(ctx context.Context, action string) (report *Report, err error) {
	stages, err := o.stages(action)
	if err != nil {
		return nil, err
	}

	report = newReport(uuid.NewString(), action, o.now())
	logger := o.logger.WithFields(logrus.Fields{
		"RunId":  report.RunId,
		"Action": action,
	})
	logger.Info("starting {Action}")

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("Stack", string(debug.Stack())).Error("orchestrator panicked")
			report.Errors = append(report.Errors, fmt.Sprintf("orchestrator: panic: %v", r))
		}

		report.finish(o.now())
		o.record(ctx, report, logger)
	}()

	for _, s := range stages {
		o.runStage(ctx, s, report, logger)
	}

	return report, nil
}

func (o *Orchestrator) runStage(ctx context.Context, s stage, report *Report, logger log.Logger) {
	logger = logger.WithField("Stage", s.name)
	startedAt := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithField("Stack", string(debug.Stack())).Error("stage {Stage} panicked")
				err = fmt.Errorf("panic: %v", r)
			}
		}()

		stageCtx := ctx
		if o.timeout > 0 {
			var cancel context.CancelFunc
			stageCtx, cancel = context.WithTimeout(ctx, o.timeout)
			defer cancel()
		}

		return s.run(stageCtx, report)
	}()

	duration := time.Since(startedAt)
	report.Durations[s.name] = duration.Milliseconds()

	if err != nil {
		logger.WithError(err).Error("stage {Stage} failed")
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", s.name, err))
		return
	}

	report.CompletedStages = append(report.CompletedStages, s.name)
	logger.WithField("Duration", duration.String()).Info("stage {Stage} completed in {Duration}")
}

func (o *Orchestrator) scrape(ctx context.Context, report *Report) error {
	results, err := o.scraper.Run(ctx)
	if err != nil {
		return err
	}

	report.addSources(results)

	return nil
}

func (o *Orchestrator) record(ctx context.Context, report *Report, logger log.Logger) {
	if o.recorder == nil {
		return
	}

	// the audit row is written even when the run was cancelled
	ctx = context.WithoutCancel(ctx)

	entry := &db.AutomationLogModel{
		TaskType: report.Action,
		Status:   report.Status,
		Details:  report.Details(),
		RunAt:    report.StartedAt,
	}

	if err := o.recorder.Record(ctx, entry); err != nil {
		logger.WithError(err).Error("failed to write automation log")
		return
	}

	logger.WithField("Status", report.Status).Info("{Action} finished with status {Status}")
}
