package cmd

import (
	"context"
	"flag"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/csr-ugra/petads-pipeline/internal/log"
	"github.com/csr-ugra/petads-pipeline/internal/pipeline"
	"github.com/csr-ugra/petads-pipeline/internal/util"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func Run(ctx context.Context, connection bun.IDB, config *util.Config) error {
	var (
		action   string
		dryRun   bool
		migrate  bool
		schedule bool
	)
	flag.StringVar(&action, "action", pipeline.ActionFullSync, "one of: "+strings.Join(pipeline.Actions, ", "))
	flag.BoolVar(&dryRun, "dry", false, "dry run")
	flag.BoolVar(&migrate, "migrate", false, "create schema, seed categories and exit")
	flag.BoolVar(&schedule, "schedule", false, "stay resident and run scrape and full_sync on their cron schedules")
	flag.Parse()

	logger := log.GetLogger()

	if dryRun {
		logger = log.AddGlobalField("DryRun", dryRun)
	}

	if migrate {
		logger.Debug("migrating schema")
		if err := db.Migrate(ctx, connection); err != nil {
			return err
		}
		logger.Info("schema is up to date")

		return nil
	}

	components, err := build(ctx, connection, config, dryRun)
	if err != nil {
		return err
	}
	defer components.Close()

	if schedule {
		return runScheduled(ctx, components.orchestrator, config, logger)
	}

	report, err := components.orchestrator.Run(ctx, action)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"RunId":  report.RunId,
		"Status": report.Status,
		"Errors": len(report.Errors),
	}).Info("run finished with status {Status}")

	return nil
}

func runScheduled(ctx context.Context, orchestrator *pipeline.Orchestrator, config *util.Config, logger log.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
	)

	jobs := map[string]string{
		pipeline.ActionScrape:   config.ScrapeSchedule.Value,
		pipeline.ActionFullSync: config.SyncSchedule.Value,
	}

	for action, expr := range jobs {
		_, err := c.AddFunc(expr, func() {
			if _, err := orchestrator.Run(ctx, action); err != nil {
				logger.WithError(err).WithField("Action", action).Error("scheduled {Action} failed")
			}
		})
		if err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", expr, action, err)
		}

		logger.WithFields(logrus.Fields{
			"Action":   action,
			"Schedule": expr,
		}).Info("scheduled {Action} at {Schedule}")
	}

	c.Start()
	<-ctx.Done()

	logger.Info("stopping scheduler, waiting for running jobs")
	<-c.Stop().Done()

	return nil
}
