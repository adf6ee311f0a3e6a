package affiliate

import (
	"context"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/copywriter"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/csr-ugra/petads-pipeline/internal/util"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	ContentTypeReview = "product_review"

	maxExcerptLength = 160

	systemPrompt = "You are a pet care writer for a classifieds and pet supplies site. " +
		"Write honest, helpful product reviews in Markdown for pet owners. " +
		"Do not invent specifications that are not given."
)

var generationParams = copywriter.Params{
	Temperature:     0.7,
	MaxOutputTokens: 1500,
}

// Outcome tells which path produced a piece of content.
type Outcome int

const (
	OutcomeGenerated Outcome = iota + 1
	OutcomeTemplated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGenerated:
		return "generated"
	case OutcomeTemplated:
		return "templated"
	default:
		return "unknown"
	}
}

type Generation struct {
	ProductId int64
	Slug      string
	Outcome   Outcome
}

// GenerateContent writes a review for up to ContentBatchSize active products
// that have none. Products are re-checked under a per-product lock right
// before generation, so a product never gets a second row.
func (s *Service) GenerateContent(ctx context.Context) ([]Generation, error) {
	products, err := db.GetProductsWithoutContent(ctx, s.connection, ContentBatchSize)
	if err != nil {
		return nil, fmt.Errorf("error loading products without content: %w", err)
	}
	s.logger.WithField("ProductCount", len(products)).Info("generating content for {ProductCount} products")

	var (
		mu          sync.Mutex
		generations = make([]Generation, 0, len(products))
	)

	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, product := range products {
		g.Go(func() error {
			logger := s.logger.WithField("ProductId", product.Id)

			generation, ok, err := s.generateForProduct(ctx, product)
			if err != nil {
				logger.WithError(err).Warn("failed to save content for product {ProductId}")
				return nil
			}
			if !ok {
				return nil
			}

			logger.WithField("Outcome", generation.Outcome.String()).Debug("content for product {ProductId} is {Outcome}")

			mu.Lock()
			generations = append(generations, generation)
			mu.Unlock()

			return nil
		})
	}
	_ = g.Wait()

	return generations, nil
}

func (s *Service) generateForProduct(ctx context.Context, product *db.AffiliateProductModel) (generation Generation, created bool, err error) {
	err = s.locks.With(fmt.Sprintf("content/%d", product.Id), func() error {
		exists, err := db.ContentExists(ctx, s.connection, product.Id)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		body, outcome, err := s.writeBody(ctx, product)
		if err != nil {
			return err
		}

		content := BuildContent(product, body, s.now())
		generation = Generation{ProductId: product.Id, Slug: content.Slug, Outcome: outcome}

		if s.dryRun {
			created = true
			return nil
		}

		created, err = db.InsertContent(ctx, s.connection, content)

		return err
	})

	return generation, created, err
}

// writeBody asks the generative service first and falls back to the template
// on any error. Only a template failure is returned.
func (s *Service) writeBody(ctx context.Context, product *db.AffiliateProductModel) (string, Outcome, error) {
	resp, err := s.generator.Generate(ctx, copywriter.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   BuildPrompt(product),
		Params:       generationParams,
	})
	if err == nil && resp != nil && strings.TrimSpace(resp.Content) != "" {
		return strings.TrimSpace(resp.Content) + "\n", OutcomeGenerated, nil
	}

	s.logger.WithFields(logrus.Fields{
		"ProductId": product.Id,
		"Reason":    fallbackReason(err),
	}).Info("using review template for product {ProductId}")

	body, err := RenderTemplate(product)
	if err != nil {
		return "", 0, err
	}

	return body, OutcomeTemplated, nil
}

func fallbackReason(err error) string {
	if err == nil {
		return "empty response"
	}

	return err.Error()
}

func BuildPrompt(product *db.AffiliateProductModel) string {
	var sb strings.Builder

	sb.WriteString("Write a product review of about 300 words with a short verdict.\n\n")
	_, _ = fmt.Fprintf(&sb, "Product: %s\n", product.Title)
	if product.Brand != "" {
		_, _ = fmt.Fprintf(&sb, "Brand: %s\n", product.Brand)
	}
	_, _ = fmt.Fprintf(&sb, "Category: %s\n", strings.Trim(product.Category+" / "+product.Subcategory, " /"))
	_, _ = fmt.Fprintf(&sb, "Price: %.2f %s\n", product.Price, product.Currency)
	_, _ = fmt.Fprintf(&sb, "Rating: %.1f / 5 from %d reviews\n", product.Rating, product.ReviewCount)
	if product.Description != "" {
		_, _ = fmt.Fprintf(&sb, "Description: %s\n", product.Description)
	}

	return sb.String()
}

// BuildContent fills every persisted field the same way whichever path wrote
// the body. New content is published immediately.
func BuildContent(product *db.AffiliateProductModel, body string, now time.Time) *db.AffiliateContentModel {
	title := product.Title + " Review"
	excerpt := Excerpt(body)

	seoTitle := product.SeoTitle
	if seoTitle == "" {
		seoTitle = SeoTitle(product.Title)
	}

	seoDescription := product.SeoDescription
	if seoDescription == "" {
		seoDescription = util.Truncate(excerpt, maxSeoDescriptionLen)
	}

	tags := product.Tags
	if len(tags) == 0 {
		tags = Tags(product.Category, product.Subcategory, product.Brand, "")
	}

	return &db.AffiliateContentModel{
		ProductId:      product.Id,
		ContentType:    ContentTypeReview,
		Title:          title,
		Slug:           fmt.Sprintf("%s-%d", util.Slugify(product.Title), product.Id),
		Body:           body,
		Excerpt:        excerpt,
		SeoTitle:       seoTitle,
		SeoDescription: seoDescription,
		Tags:           tags,
		IsPublished:    true,
		PublishAt:      now,
		CreatedAt:      now,
	}
}

var (
	markdownLinkRe   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	markdownSymbolRe = regexp.MustCompile("(?m)^\\s*(#+|[-*+]|>)\\s+|[*_`]")
)

// Excerpt is the first 160 characters of the body as plain text.
func Excerpt(body string) string {
	plain := markdownLinkRe.ReplaceAllString(body, "$1")
	plain = markdownSymbolRe.ReplaceAllString(plain, "")

	return util.Truncate(util.Normalize(plain), maxExcerptLength)
}
