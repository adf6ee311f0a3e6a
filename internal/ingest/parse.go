package ingest

import (
	"bytes"
	"fmt"
	"github.com/PuerkitoBio/goquery"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/csr-ugra/petads-pipeline/internal/extract"
	"github.com/csr-ugra/petads-pipeline/internal/selector"
	"github.com/sirupsen/logrus"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// parse turns a fetched document into listings ready to upsert. Rejected
// nodes are counted as skipped; nodes that could not be read are item errors.
func (j *Job) parse(body []byte, source *db.ScrapingSourceModel, categories map[string]int64, scrapedAt time.Time) (listings []*db.ListingModel, skipped int, itemErrors []error, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("error parsing document: %w", err)
	}

	base, err := baseUrl(source)
	if err != nil {
		return nil, 0, nil, err
	}

	set := source.Selectors.WithDefaults()

	doc.Find(set.Container.String()).EachWithBreak(func(i int, node *goquery.Selection) bool {
		if i >= MaxContainers {
			return false
		}

		listing, keep, err := j.listingFromNode(node, set, base, source, categories, scrapedAt)
		switch {
		case err != nil:
			itemErrors = append(itemErrors, fmt.Errorf("node %d: %w", i, err))
		case !keep:
			skipped++
		default:
			listings = append(listings, listing)
		}

		return true
	})

	return listings, skipped, itemErrors, nil
}

func (j *Job) listingFromNode(node *goquery.Selection, set selector.Set, base *url.URL, source *db.ScrapingSourceModel, categories map[string]int64, scrapedAt time.Time) (*db.ListingModel, bool, error) {
	fields, err := extract.Extract(node, set, base)
	if err != nil {
		return nil, false, err
	}

	if utf8.RuneCountInString(fields.Title) < minTitleLength {
		return nil, false, nil
	}

	if !j.classifier.IsRelevant(fields.Title) {
		return nil, false, nil
	}

	if fields.Link == "" {
		return nil, false, extract.NewMissingFieldError("link", set.Link)
	}

	c := j.classifier.Classify(fields.Title, fields.Description, strings.Join(fields.Attributes, " "))
	if c.AmbiguousGender {
		j.logger.WithFields(logrus.Fields{
			"SourceName": source.Name,
			"Url":        fields.Link,
			"Gender":     c.Gender,
		}).Debug("both genders mentioned in {Url}, keeping {Gender}")
	}

	listing := &db.ListingModel{
		Title:       fields.Title,
		Description: fields.Description,
		Price:       fields.Price,
		Currency:    defaultCurrency,
		Location:    fields.Location,
		Images:      fields.Images,
		Breed:       &c.Breed,
		Age:         c.Age,
		Gender:      &c.Gender,
		SourceName:  source.Name,
		SourceUrl:   fields.Link,
		ScrapedAt:   scrapedAt,
		IsActive:    true,
	}

	if id, ok := categories[c.CategorySlug]; ok && c.CategorySlug != "" {
		listing.CategoryId = &id
	}

	return listing, true, nil
}

func baseUrl(source *db.ScrapingSourceModel) (*url.URL, error) {
	raw := source.BaseUrl
	if raw == "" {
		raw = source.ScrapeUrl
	}

	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", raw, err)
	}

	return base, nil
}
