package classify

import (
	ahocorasick "github.com/cloudflare/ahocorasick"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Classification is the inferred metadata of a listing. Breed and Gender fall
// back to "Mixed", Age and CategorySlug to empty; ambiguity is a valid result,
// the Ambiguous* flags only exist for logging.
type Classification struct {
	Breed        string
	Age          *string
	Gender       string
	CategorySlug string

	AmbiguousGender bool
}

type Classifier struct {
	mu        sync.Mutex
	breeds    *ahocorasick.Matcher
	relevance *ahocorasick.Matcher
	// words holds a whole-word pattern per PetKeywords entry, by index
	words     []*regexp.Regexp
}

func New() *Classifier {
	phrases := make([]string, 0, len(Breeds))
	for _, b := range Breeds {
		phrases = append(phrases, b.Phrase)
	}

	return &Classifier{
		breeds:    ahocorasick.NewStringMatcher(phrases),
		relevance: ahocorasick.NewStringMatcher(PetKeywords),
		words:     wordPatterns(PetKeywords),
	}
}

func wordPatterns(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, k := range keywords {
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(k)+`(s|es)?\b`))
	}

	return patterns
}

func (c *Classifier) match(m *ahocorasick.Matcher, text string) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return m.Match([]byte(text))
}

// IsRelevant reports whether the lower-cased title contains any pet keyword
// as a whole word, optionally pluralized. "carpet" and "vacation" are not hits.
func (c *Classifier) IsRelevant(title string) bool {
	title = strings.ToLower(title)

	for _, hit := range c.match(c.relevance, title) {
		if c.words[hit].MatchString(title) {
			return true
		}
	}

	return false
}

func (c *Classifier) Classify(title, description, breedHint string) Classification {
	text := strings.ToLower(strings.Join([]string{title, description, breedHint}, " "))

	gender, ambiguous := Gender(text)

	return Classification{
		Breed:           c.Breed(text),
		Age:             Age(text),
		Gender:          gender,
		CategorySlug:    Category(text),
		AmbiguousGender: ambiguous,
	}
}

// Breed returns the breed whose phrase comes first in the Breeds table, not
// the one that appears first in the text.
func (c *Classifier) Breed(text string) string {
	hits := c.match(c.breeds, strings.ToLower(text))
	if len(hits) == 0 {
		return DefaultBreed
	}

	first := hits[0]
	for _, h := range hits[1:] {
		if h < first {
			first = h
		}
	}

	return Breeds[first].Name
}

func Age(text string) *string {
	m := ageRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return nil
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}

	unit := m[2]
	if n != 1 {
		unit += "s"
	}

	age := strconv.Itoa(n) + " " + unit
	return &age
}

// Gender is Male or Female only when exactly one of them is mentioned.
func Gender(text string) (gender string, ambiguous bool) {
	text = strings.ToLower(text)
	male := maleRe.MatchString(text)
	female := femaleRe.MatchString(text)

	switch {
	case male && !female:
		return Male, false
	case female && !male:
		return Female, false
	case male && female:
		return DefaultGender, true
	default:
		return DefaultGender, false
	}
}

// Category returns the slug of the first matching family, or "" for an
// uncategorized listing.
func Category(text string) string {
	text = strings.ToLower(text)
	for _, rule := range Categories {
		if rule.Pattern.MatchString(text) {
			return rule.Slug
		}
	}

	return ""
}
