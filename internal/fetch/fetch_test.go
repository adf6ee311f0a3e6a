package fetch

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"github.com/csr-ugra/petads-pipeline/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestFetcher(retryCount int, renderer Renderer) *Fetcher {
	return New(Options{
		Timeout:    5 * time.Second,
		RetryCount: retryCount,
		Renderer:   renderer,
		Logger:     log.Discard(),
	})
}

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	body, err := newTestFetcher(0, nil).Fetch(context.Background(), Target{Url: srv.URL})
	require.NoError(t, err)

	assert.Contains(t, string(body), "ok")
	assert.Contains(t, got.Get("User-Agent"), "Mozilla/5.0")
	assert.NotEmpty(t, got.Get("Accept"))
	assert.NotEmpty(t, got.Get("Accept-Language"))
	assert.Equal(t, acceptEncoding, got.Get("Accept-Encoding"))
}

func TestFetch_NotFoundIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher(2, nil).Fetch(context.Background(), Target{Url: srv.URL})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.ErrorIs(t, err, &StatusError{})
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	body, err := newTestFetcher(2, nil).Fetch(context.Background(), Target{Url: srv.URL})
	require.NoError(t, err)

	assert.Equal(t, "recovered", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestFetcher(1, nil).Fetch(context.Background(), Target{Url: srv.URL})
	assert.ErrorIs(t, err, &StatusError{})
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetch_DecodesCompressedBodies(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte("gzipped listing"))
	require.NoError(t, gw.Close())

	var zl bytes.Buffer
	zw := zlib.NewWriter(&zl)
	_, _ = zw.Write([]byte("deflated listing"))
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gzip":
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(gz.Bytes())
		case "/deflate":
			w.Header().Set("Content-Encoding", "deflate")
			_, _ = w.Write(zl.Bytes())
		}
	}))
	defer srv.Close()

	fetcher := newTestFetcher(0, nil)

	body, err := fetcher.Fetch(context.Background(), Target{Url: srv.URL + "/gzip"})
	require.NoError(t, err)
	assert.Equal(t, "gzipped listing", string(body))

	body, err = fetcher.Fetch(context.Background(), Target{Url: srv.URL + "/deflate"})
	require.NoError(t, err)
	assert.Equal(t, "deflated listing", string(body))
}

func TestFetch_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(2, nil).Fetch(ctx, Target{Url: srv.URL})
	assert.Error(t, err)
}

type stubRenderer struct {
	calls int
}

func (r *stubRenderer) Render(_ context.Context, url string) ([]byte, error) {
	r.calls++
	return []byte("rendered " + url), nil
}

func TestFetch_RenderJsUsesRenderer(t *testing.T) {
	renderer := &stubRenderer{}
	fetcher := newTestFetcher(0, renderer)

	body, err := fetcher.Fetch(context.Background(), Target{Url: "https://pets.example.com", RenderJs: true})
	require.NoError(t, err)

	assert.Equal(t, "rendered https://pets.example.com", string(body))
	assert.Equal(t, 1, renderer.calls)
}

func TestFetch_RenderJsWithoutRendererFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain"))
	}))
	defer srv.Close()

	body, err := newTestFetcher(0, nil).Fetch(context.Background(), Target{Url: srv.URL, RenderJs: true})
	require.NoError(t, err)
	assert.Equal(t, "plain", string(body))
}
