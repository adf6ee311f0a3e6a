package affiliate

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"errors"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/csr-ugra/petads-pipeline/internal/db/dbtest"
	"github.com/csr-ugra/petads-pipeline/internal/fetch"
	"github.com/csr-ugra/petads-pipeline/internal/log"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fixedCatalog struct {
	products map[string][]CatalogProduct
	err      error
}

func (c *fixedCatalog) Products(_ context.Context, network *db.AffiliateNetworkModel, _ Settings) ([]CatalogProduct, error) {
	if c.err != nil {
		return nil, c.err
	}

	return c.products[network.Name], nil
}

func TestSyncNetworks_SecondRunUpdatesInsteadOfDuplicating(t *testing.T) {
	ctx := context.Background()
	service, connection, clk := newTestService(t, Options{})

	amazon := addNetwork(t, connection, "Amazon", map[string]interface{}{"kind": "amazon", "base_url": "https://www.amazon.de/dp"})
	addNetwork(t, connection, "AliExpress", map[string]interface{}{"kind": "aliexpress", "base_url": "https://www.aliexpress.com/item"})

	written, err := service.SyncNetworks(ctx)
	require.NoError(t, err)
	expected := len(staticCatalogs[KindAmazon]) + len(staticCatalogs[KindAliexpress])
	assert.Equal(t, expected, written)
	assert.Equal(t, expected, dbtest.Count(t, connection, (*db.AffiliateProductModel)(nil)))

	clk.Advance(time.Hour)

	written, err = service.SyncNetworks(ctx)
	require.NoError(t, err)
	assert.Equal(t, expected, written)
	assert.Equal(t, expected, dbtest.Count(t, connection, (*db.AffiliateProductModel)(nil)))

	product, err := db.GetProduct(ctx, connection, amazon.Id, "B0002AR0II")
	require.NoError(t, err)
	assert.Equal(t, "https://www.amazon.de/dp/B0002AR0II?tag=petads-21", product.AffiliateLink)
	assert.Equal(t, []string{"dogs", "toys", "KONG", "en", "pets"}, product.Tags)
	assert.Equal(t, "KONG Classic Dog Toy, Medium | Best Price", product.SeoTitle)
	assert.True(t, product.IsActive)
	require.NotNil(t, product.LastPriceCheck)
	assert.True(t, clk.Now().Equal(*product.LastPriceCheck))
	assert.True(t, clk.Now().Add(-time.Hour).Equal(product.CreatedAt))
}

func TestSyncNetworks_UpdatesMutableFields(t *testing.T) {
	ctx := context.Background()
	catalog := &fixedCatalog{products: map[string][]CatalogProduct{
		"Zooplus": {{ExternalId: "BED-1", Title: "Dog Bed", Description: "Soft", Price: 40, Rating: 4.1, ReviewCount: 10}},
	}}
	service, connection, _ := newTestService(t, Options{Catalog: catalog})
	network := addNetwork(t, connection, "Zooplus", map[string]interface{}{"base_url": "https://shop.example.com/p"})

	_, err := service.SyncNetworks(ctx)
	require.NoError(t, err)

	catalog.products["Zooplus"][0].Price = 35.5
	catalog.products["Zooplus"][0].Description = "Soft and washable"
	catalog.products["Zooplus"][0].Rating = 4.4

	written, err := service.SyncNetworks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	product, err := db.GetProduct(ctx, connection, network.Id, "BED-1")
	require.NoError(t, err)
	assert.Equal(t, 35.5, product.Price)
	assert.Equal(t, "Soft and washable", product.Description)
	assert.Equal(t, 4.4, product.Rating)
	assert.Equal(t, "EUR", product.Currency)
	assert.Equal(t, "https://shop.example.com/p/BED-1?ref=petads-21", product.AffiliateLink)
}

func TestSyncNetworks_InvalidNetworkIsSkipped(t *testing.T) {
	ctx := context.Background()
	service, connection, _ := newTestService(t, Options{})

	addNetwork(t, connection, "Broken", map[string]interface{}{"kind": "amazon"})
	addNetwork(t, connection, "Generic", map[string]interface{}{"base_url": "https://shop.example.com/p"})

	written, err := service.SyncNetworks(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(staticCatalogs[KindGeneric]), written)
}

func TestSyncNetworks_CatalogErrorIsNotFatal(t *testing.T) {
	service, connection, _ := newTestService(t, Options{Catalog: &fixedCatalog{err: errors.New("partner down")}})
	addNetwork(t, connection, "Generic", map[string]interface{}{"base_url": "https://shop.example.com/p"})

	written, err := service.SyncNetworks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, written)
}

func TestFeedCatalog(t *testing.T) {
	feed := []CatalogProduct{
		{ExternalId: "FEED-1", Title: "Cat Scratching Post", Price: 19.99, Category: "cats"},
		{ExternalId: "", Title: "no id, dropped"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed.json" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(feed)
	}))
	defer srv.Close()

	catalog := NewFeedCatalog(resty.New(), log.Discard())
	network := &db.AffiliateNetworkModel{Name: "Feed"}

	products, err := catalog.Products(context.Background(), network, GenericSettings{BaseUrl: "https://shop.example.com", FeedUrl: srv.URL + "/feed.json"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "FEED-1", products[0].ExternalId)

	products, err = catalog.Products(context.Background(), network, GenericSettings{BaseUrl: "https://shop.example.com", FeedUrl: srv.URL + "/broken"})
	require.NoError(t, err)
	assert.Equal(t, staticCatalogs[KindGeneric], products)

	products, err = catalog.Products(context.Background(), network, AmazonSettings{BaseUrl: "https://www.amazon.de/dp"})
	require.NoError(t, err)
	assert.Equal(t, staticCatalogs[KindAmazon], products)
}

func TestFeedCatalog_ReadsFeedsRegardlessOfEncoding(t *testing.T) {
	feed, err := json.Marshal([]CatalogProduct{{ExternalId: "F1", Title: "Hay Rack", Price: 7.5}})
	require.NoError(t, err)

	var deflated bytes.Buffer
	zw := zlib.NewWriter(&deflated)
	_, _ = zw.Write(feed)
	require.NoError(t, zw.Close())

	var gzipped bytes.Buffer
	gw := gzip.NewWriter(&gzipped)
	_, _ = gw.Write(feed)
	require.NoError(t, gw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write(feed)
		case "/octet":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(feed)
		case "/deflate":
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Content-Encoding", "deflate")
			_, _ = w.Write(deflated.Bytes())
		case "/gzip":
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(gzipped.Bytes())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := fetch.New(fetch.Options{Timeout: 5 * time.Second, Logger: log.Discard()}).Client()
	catalog := NewFeedCatalog(client, log.Discard())
	network := &db.AffiliateNetworkModel{Name: "Feed"}

	for _, path := range []string{"/plain", "/octet", "/deflate", "/gzip"} {
		t.Run(path, func(t *testing.T) {
			products, err := catalog.Products(context.Background(), network, GenericSettings{BaseUrl: "https://shop.example.com", FeedUrl: srv.URL + path})
			require.NoError(t, err)
			require.Len(t, products, 1)
			assert.Equal(t, "F1", products[0].ExternalId)
		})
	}
}

func TestFeedCatalog_EmptyFeedFallsBackToStatic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/empty":
			_, _ = w.Write([]byte("[]"))
		case "/nameless":
			_, _ = w.Write([]byte(`[{"external_id":"X1"}]`))
		default:
			_, _ = w.Write([]byte("<html>not a feed</html>"))
		}
	}))
	defer srv.Close()

	catalog := NewFeedCatalog(resty.New(), log.Discard())
	network := &db.AffiliateNetworkModel{Name: "Feed"}

	for _, path := range []string{"/empty", "/nameless", "/html"} {
		t.Run(path, func(t *testing.T) {
			products, err := catalog.Products(context.Background(), network, GenericSettings{BaseUrl: "https://shop.example.com", FeedUrl: srv.URL + path})
			require.NoError(t, err)
			assert.Equal(t, staticCatalogs[KindGeneric], products)
		})
	}
}

func TestEnsureNetwork(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, Options{})

	network := &db.AffiliateNetworkModel{
		Name:      "Amazon",
		PartnerId: "petads-21",
		IsActive:  true,
		Settings:  map[string]interface{}{"kind": "amazon", "base_url": "https://www.amazon.de/dp"},
	}

	created, ok, err := service.EnsureNetwork(ctx, network)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotZero(t, created.Id)

	again, ok, err := service.EnsureNetwork(ctx, &db.AffiliateNetworkModel{Name: "Amazon"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, created.Id, again.Id)
	assert.Equal(t, 24, again.UpdateFrequencyHours)

	_, _, err = service.EnsureNetwork(ctx, &db.AffiliateNetworkModel{Name: "Nope", Settings: map[string]interface{}{"kind": "ebay"}})
	assert.ErrorIs(t, err, ErrInvalidSettings)
}
