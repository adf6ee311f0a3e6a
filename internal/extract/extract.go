package extract

import (
	"errors"
	"fmt"
	"github.com/PuerkitoBio/goquery"
	"github.com/csr-ugra/petads-pipeline/internal/selector"
	"github.com/csr-ugra/petads-pipeline/internal/util"
	"net/url"
	"strings"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 500
	maxImages            = 5
)

type MissingFieldError struct {
	Field    string
	Selector string
}

func NewMissingFieldError(field string, sel selector.Selector) *MissingFieldError {
	return &MissingFieldError{Field: field, Selector: sel.String()}
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("field %s not found by selector '%s'", e.Field, e.Selector)
}

func (e MissingFieldError) Is(target error) bool {
	var t *MissingFieldError
	return errors.As(target, &t)
}

// Fields is the partial record extracted from one listing node. Empty strings
// and a nil Price mean the field was not found.
type Fields struct {
	Title       string
	Price       *float64
	Location    string
	Description string
	Link        string
	Images      []string
	Attributes  []string
}

// Extract reads one listing node. It never panics: a failure is returned as an
// error so the caller can skip the node and keep going.
func Extract(node *goquery.Selection, set selector.Set, base *url.URL) (fields *Fields, err error) {
	defer func() {
		if r := recover(); r != nil {
			fields = nil
			err = fmt.Errorf("extract listing node: %v", r)
		}
	}()

	if node == nil || node.Length() == 0 {
		return nil, errors.New("extract listing node: empty selection")
	}

	set = set.WithDefaults()

	fields = &Fields{
		Title:       util.Truncate(text(node, set.Title), MaxTitleLength),
		Location:    text(node, set.Location),
		Description: util.Truncate(text(node, set.Description), MaxDescriptionLength),
		Link:        link(node, set.Link, base),
		Images:      images(node, set.Image, base),
		Attributes:  attributes(node, set.Attributes),
	}

	if priceText := text(node, set.Price); priceText != "" {
		fields.Price = ParsePrice(priceText)
	}

	return fields, nil
}

func text(node *goquery.Selection, sel selector.Selector) string {
	return util.Normalize(node.Find(sel.String()).First().Text())
}

func link(node *goquery.Selection, sel selector.Selector, base *url.URL) string {
	href, ok := node.Find(sel.String()).First().Attr("href")
	if !ok && goquery.NodeName(node) == "a" {
		href, ok = node.Attr("href")
	}
	if !ok {
		return ""
	}

	return resolve(base, href)
}

func images(node *goquery.Selection, sel selector.Selector, base *url.URL) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0)

	node.Find(sel.String()).EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("data-src")
		if !ok || strings.TrimSpace(src) == "" {
			src, _ = img.Attr("src")
		}

		src = resolve(base, src)
		if src == "" || strings.HasPrefix(src, "data:") {
			return true
		}

		if _, dup := seen[src]; !dup {
			seen[src] = struct{}{}
			result = append(result, src)
		}

		return len(result) < maxImages
	})

	return result
}

func attributes(node *goquery.Selection, sel selector.Selector) []string {
	result := make([]string, 0)
	node.Find(sel.String()).Each(func(_ int, s *goquery.Selection) {
		if v := util.Normalize(s.Text()); v != "" {
			result = append(result, v)
		}
	})

	return result
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if base != nil {
		u = base.ResolveReference(u)
	}
	u.Fragment = ""

	return u.String()
}
