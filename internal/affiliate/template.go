package affiliate

import (
	"bytes"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"
)

// label turns a slug like "small-pets" into "Small pets".
func label(s string) string {
	s = strings.ReplaceAll(s, "-", " ")

	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}

var reviewTemplate = template.Must(template.New("review").Funcs(template.FuncMap{
	"money": func(v float64, currency string) string {
		return fmt.Sprintf("%.2f %s", v, currency)
	},
	"deref": func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	},
	"rating": func(v float64) string {
		return fmt.Sprintf("%.1f", v)
	},
	"label": label,
}).Parse(`# {{.Title}} Review

{{if .Description}}{{.Description}}{{else}}{{.Title}} is a popular pick among pet owners.{{end}}

## At a glance

- **Category:** {{if .Category}}{{label .Category}}{{else}}Pet supplies{{end}}{{if .Subcategory}} / {{label .Subcategory}}{{end}}
{{- if .Brand}}
- **Brand:** {{.Brand}}{{end}}
- **Price:** {{money .Price .Currency}}{{if .OriginalPrice}} (was {{money (deref .OriginalPrice) .Currency}}){{end}}
- **Rating:** {{rating .Rating}} / 5 from {{.ReviewCount}} reviews

## Our take

{{if ge .Rating 4.5}}Owners rate it among the best in its category.{{else if ge .Rating 4.0}}A solid choice that most owners are happy with.{{else}}Worth a look if it fits your pet's needs.{{end}}

[Check the current price]({{.AffiliateLink}})
`))

// RenderTemplate writes the deterministic review used when the generative
// service is unavailable. The same product always renders the same body.
func RenderTemplate(product *db.AffiliateProductModel) (string, error) {
	var buf bytes.Buffer
	if err := reviewTemplate.Execute(&buf, product); err != nil {
		return "", fmt.Errorf("error rendering review template: %w", err)
	}

	return strings.TrimSpace(buf.String()) + "\n", nil
}
