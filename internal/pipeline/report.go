package pipeline

import (
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/affiliate"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/csr-ugra/petads-pipeline/internal/ingest"
	"time"
)

type Report struct {
	RunId     string
	Action    string
	Status    string
	StartedAt time.Time
	EndedAt   time.Time

	ListingsScraped  int
	ProductsSynced   int
	PricesUpdated    int
	ContentGenerated int
	ContentTemplated int
	ContentPublished int

	Sources         []map[string]interface{}
	CompletedStages []string
	Errors          []string
	// Durations holds milliseconds per stage.
	Durations map[string]int64
}

func newReport(runId, action string, startedAt time.Time) *Report {
	return &Report{
		RunId:     runId,
		Action:    action,
		StartedAt: startedAt,
		Errors:    make([]string, 0),
		Durations: make(map[string]int64),
	}
}

func (r *Report) addGenerations(generations []affiliate.Generation) {
	for _, g := range generations {
		r.ContentGenerated++
		if g.Outcome == affiliate.OutcomeTemplated {
			r.ContentTemplated++
		}
	}
}

// addSources records per-source outcomes. A failed source is an error of the
// run but does not fail the scrape stage.
func (r *Report) addSources(results []*ingest.Result) {
	for _, result := range results {
		if result == nil {
			continue
		}

		r.Sources = append(r.Sources, result.Details())
		r.ListingsScraped += result.ScrapedCount

		if !result.Success && result.Error != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("%s: %s: %v", ActionScrape, result.Source.Name, result.Error))
		}
	}
}

func (r *Report) finish(endedAt time.Time) {
	r.EndedAt = endedAt

	switch {
	case len(r.Errors) == 0:
		r.Status = db.AutomationStatusSuccess
	case len(r.CompletedStages) > 0:
		r.Status = db.AutomationStatusPartialSuccess
	default:
		r.Status = db.AutomationStatusError
	}
}

func (r *Report) Details() map[string]interface{} {
	details := map[string]interface{}{
		"run_id":            r.RunId,
		"completed_stages":  r.CompletedStages,
		"errors":            r.Errors,
		"durations_ms":      r.Durations,
		"duration_ms":       r.EndedAt.Sub(r.StartedAt).Milliseconds(),
		"products_synced":   r.ProductsSynced,
		"prices_updated":    r.PricesUpdated,
		"content_generated": r.ContentGenerated,
		"content_templated": r.ContentTemplated,
		"content_published": r.ContentPublished,
	}

	if r.Action == ActionScrape {
		details["listings_scraped"] = r.ListingsScraped
		details["sources"] = r.Sources
	}

	return details
}
