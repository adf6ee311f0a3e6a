package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var priceRe = regexp.MustCompile(`\d+([.,]\d{3})*([.,]\d{2})?`)

// ParsePrice returns the first price-like number in text, or nil when there is
// none. A nil price means "contact for price" and must never be read as zero.
func ParsePrice(text string) *float64 {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	whole, fraction := m[0], ""
	if m[2] != "" {
		whole = m[0][:len(m[0])-len(m[2])]
		fraction = m[2][1:]
	}

	whole = strings.NewReplacer(".", "", ",", "").Replace(whole)

	number := whole
	if fraction != "" {
		number += "." + fraction
	}

	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return nil
	}

	return &v
}
