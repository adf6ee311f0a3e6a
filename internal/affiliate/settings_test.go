package affiliate

import (
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseSettings_Variants(t *testing.T) {
	tests := []struct {
		name    string
		network db.AffiliateNetworkModel
		kind    Kind
		link    string
		locale  string
	}{
		{
			name: "amazon with explicit tag",
			network: db.AffiliateNetworkModel{Name: "Amazon DE", PartnerId: "partner", Settings: map[string]interface{}{
				"kind": "amazon", "base_url": "https://www.amazon.de/dp/", "affiliate_tag": "petads-21", "locale": "de",
			}},
			kind:   KindAmazon,
			link:   "https://www.amazon.de/dp/B0002AR0II?tag=petads-21",
			locale: "de",
		},
		{
			name: "aliexpress tag defaults to partner id",
			network: db.AffiliateNetworkModel{Name: "AliExpress", PartnerId: "ali-77", Settings: map[string]interface{}{
				"platform": "AliExpress", "base_url": "https://www.aliexpress.com/item",
			}},
			kind:   KindAliexpress,
			link:   "https://www.aliexpress.com/item/B0002AR0II.html?aff_fcid=ali-77",
			locale: "en",
		},
		{
			name: "kind inferred from network name",
			network: db.AffiliateNetworkModel{Name: "amazon-uk", PartnerId: "uk-1", Settings: map[string]interface{}{
				"base_url": "https://www.amazon.co.uk/dp",
			}},
			kind:   KindAmazon,
			link:   "https://www.amazon.co.uk/dp/B0002AR0II?tag=uk-1",
			locale: "en",
		},
		{
			name: "generic",
			network: db.AffiliateNetworkModel{Name: "Zooplus", PartnerId: "zp", Settings: map[string]interface{}{
				"kind": "generic", "base_url": "https://shop.example.com/p", "version": float64(1),
			}},
			kind:   KindGeneric,
			link:   "https://shop.example.com/p/B0002AR0II?ref=zp",
			locale: "en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := ParseSettings(&tt.network)
			require.NoError(t, err)

			assert.Equal(t, tt.kind, settings.Kind())
			assert.Equal(t, tt.link, settings.Link("B0002AR0II"))
			assert.Equal(t, tt.locale, settings.Locale())
		})
	}
}

func TestParseSettings_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]interface{}
	}{
		{name: "nil blob", settings: nil},
		{name: "missing base url", settings: map[string]interface{}{"kind": "amazon"}},
		{name: "relative base url", settings: map[string]interface{}{"kind": "amazon", "base_url": "/dp"}},
		{name: "unknown kind", settings: map[string]interface{}{"kind": "ebay", "base_url": "https://ebay.example.com"}},
		{name: "future version", settings: map[string]interface{}{"version": 2, "base_url": "https://shop.example.com"}},
		{name: "bad version", settings: map[string]interface{}{"version": "two", "base_url": "https://shop.example.com"}},
		{name: "bad feed url", settings: map[string]interface{}{"base_url": "https://shop.example.com", "feed_url": "feed.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings(&db.AffiliateNetworkModel{Name: "Partner", PartnerId: "p", Settings: tt.settings})
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func TestSeoHelpers(t *testing.T) {
	long := "Extra Large Heavy Duty Stainless Steel Elevated Dog Bowl Stand With Two Bowls"

	title := SeoTitle(long)
	assert.LessOrEqual(t, len([]rune(title)), maxSeoTitleLength)
	assert.Contains(t, title, seoTitleSuffix)
	assert.Equal(t, "Cat Tree | Best Price", SeoTitle("Cat Tree"))

	assert.Equal(t, "Cat Tree", SeoDescription("  ", "Cat Tree"))
	assert.Len(t, []rune(SeoDescription(long+long+long, "x")), maxSeoDescriptionLen)

	assert.Equal(t, []string{"dogs", "toys", "KONG", "en", "pets"}, Tags("dogs", "toys", "KONG", "en"))
	assert.Equal(t, []string{"birds", "en", "pets"}, Tags("birds", "", " ", "en"))
}
