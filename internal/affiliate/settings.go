package affiliate

import (
	"errors"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"net/url"
	"strconv"
	"strings"
)

var ErrInvalidSettings = errors.New("invalid network settings")

// SettingsVersion is the only settings layout this build understands. Blobs
// without a version are treated as version 1.
const SettingsVersion = 1

type Kind string

const (
	KindAmazon     Kind = "amazon"
	KindAliexpress Kind = "aliexpress"
	KindGeneric    Kind = "generic"
)

const defaultLocale = "en"

// Settings is the validated, typed form of a network's settings blob. Each
// network kind has its own variant.
type Settings interface {
	Kind() Kind
	Locale() string
	Link(externalId string) string
}

type AmazonSettings struct {
	BaseUrl      string
	AffiliateTag string
	locale       string
}

func (s AmazonSettings) Kind() Kind     { return KindAmazon }
func (s AmazonSettings) Locale() string { return s.locale }

func (s AmazonSettings) Link(externalId string) string {
	return fmt.Sprintf("%s/%s?tag=%s", s.BaseUrl, url.PathEscape(externalId), url.QueryEscape(s.AffiliateTag))
}

type AliexpressSettings struct {
	BaseUrl    string
	TrackingId string
	locale     string
}

func (s AliexpressSettings) Kind() Kind     { return KindAliexpress }
func (s AliexpressSettings) Locale() string { return s.locale }

func (s AliexpressSettings) Link(externalId string) string {
	return fmt.Sprintf("%s/%s.html?aff_fcid=%s", s.BaseUrl, url.PathEscape(externalId), url.QueryEscape(s.TrackingId))
}

// GenericSettings covers partners without a dedicated integration. FeedUrl is
// optional; without it the static catalog is used.
type GenericSettings struct {
	BaseUrl string
	Ref     string
	FeedUrl string
	locale  string
}

func (s GenericSettings) Kind() Kind     { return KindGeneric }
func (s GenericSettings) Locale() string { return s.locale }

func (s GenericSettings) Link(externalId string) string {
	return fmt.Sprintf("%s/%s?ref=%s", s.BaseUrl, url.PathEscape(externalId), url.QueryEscape(s.Ref))
}

// ParseSettings validates a network's settings blob. The kind comes from the
// "kind" key (or the older "platform" key) and otherwise from the network
// name. Partner tags default to the network's partner id.
func ParseSettings(network *db.AffiliateNetworkModel) (Settings, error) {
	raw := network.Settings
	if raw == nil {
		raw = map[string]interface{}{}
	}

	version, err := intValue(raw, "version", SettingsVersion)
	if err != nil {
		return nil, err
	}
	if version != SettingsVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSettings, version)
	}

	kind, err := kindOf(network, raw)
	if err != nil {
		return nil, err
	}

	baseUrl, err := baseUrlValue(raw)
	if err != nil {
		return nil, err
	}

	locale := stringValue(raw, "locale")
	if locale == "" {
		locale = defaultLocale
	}

	switch kind {
	case KindAmazon:
		return AmazonSettings{
			BaseUrl:      baseUrl,
			AffiliateTag: orPartnerId(stringValue(raw, "affiliate_tag"), network),
			locale:       locale,
		}, nil
	case KindAliexpress:
		return AliexpressSettings{
			BaseUrl:    baseUrl,
			TrackingId: orPartnerId(stringValue(raw, "tracking_id"), network),
			locale:     locale,
		}, nil
	default:
		feedUrl := stringValue(raw, "feed_url")
		if feedUrl != "" {
			if _, err := absoluteUrl(feedUrl); err != nil {
				return nil, fmt.Errorf("%w: feed_url: %v", ErrInvalidSettings, err)
			}
		}

		return GenericSettings{
			BaseUrl: baseUrl,
			Ref:     orPartnerId(stringValue(raw, "ref"), network),
			FeedUrl: feedUrl,
			locale:  locale,
		}, nil
	}
}

func kindOf(network *db.AffiliateNetworkModel, raw map[string]interface{}) (Kind, error) {
	value := stringValue(raw, "kind")
	if value == "" {
		value = stringValue(raw, "platform")
	}

	if value == "" {
		name := strings.ToLower(network.Name)
		switch {
		case strings.Contains(name, string(KindAmazon)):
			return KindAmazon, nil
		case strings.Contains(name, string(KindAliexpress)):
			return KindAliexpress, nil
		default:
			return KindGeneric, nil
		}
	}

	switch kind := Kind(strings.ToLower(value)); kind {
	case KindAmazon, KindAliexpress, KindGeneric:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidSettings, value)
	}
}

func baseUrlValue(raw map[string]interface{}) (string, error) {
	value := stringValue(raw, "base_url")
	if value == "" {
		return "", fmt.Errorf("%w: base_url is required", ErrInvalidSettings)
	}

	if _, err := absoluteUrl(value); err != nil {
		return "", fmt.Errorf("%w: base_url: %v", ErrInvalidSettings, err)
	}

	return strings.TrimRight(value, "/"), nil
}

func absoluteUrl(value string) (*url.URL, error) {
	u, err := url.Parse(value)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute url", value)
	}

	return u, nil
}

func orPartnerId(value string, network *db.AffiliateNetworkModel) string {
	if value != "" {
		return value
	}

	return network.PartnerId
}

func stringValue(raw map[string]interface{}, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}

	return strings.TrimSpace(fmt.Sprint(v))
}

func intValue(raw map[string]interface{}, key string, def int) (int, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return def, nil
	}

	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not a number", ErrInvalidSettings, key)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s is not a number", ErrInvalidSettings, key)
	}
}
