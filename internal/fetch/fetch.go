package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/log"
	"github.com/csr-ugra/petads-pipeline/internal/util"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	accept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9"
	acceptEncoding = "gzip, deflate"

	retryWaitTime    = 500 * time.Millisecond
	retryMaxWaitTime = 4 * time.Second
)

// Target is one listing page to download.
type Target struct {
	Url      string
	RenderJs bool
}

type StatusError struct {
	Url        string
	StatusCode int
}

func NewStatusError(url string, statusCode int) *StatusError {
	return &StatusError{Url: url, StatusCode: statusCode}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.Url)
}

func (e *StatusError) Is(target error) bool {
	_, ok := target.(*StatusError)
	return ok
}

// Renderer loads a page in a browser and returns the resulting document.
type Renderer interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

type Options struct {
	Timeout    time.Duration
	RetryCount int
	Renderer   Renderer
	Logger     log.Logger
}

func OptionsFromConfig(config *util.Config) (Options, error) {
	timeout, err := config.FetchTimeout.Duration()
	if err != nil {
		return Options{}, err
	}

	retryCount, err := config.FetchRetryCount.Int()
	if err != nil {
		return Options{}, err
	}

	return Options{Timeout: timeout, RetryCount: retryCount}, nil
}

type Fetcher struct {
	client   *resty.Client
	renderer Renderer
	logger   log.Logger
}

func New(opts Options) *Fetcher {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(retryWaitTime).
		SetRetryMaxWaitTime(retryMaxWaitTime).
		AddRetryCondition(shouldRetry).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", accept).
		SetHeader("Accept-Language", acceptLanguage).
		SetHeader("Accept-Encoding", acceptEncoding).
		SetLogger(logger)

	return &Fetcher{client: client, renderer: opts.Renderer, logger: logger}
}

// Client exposes the configured HTTP client for callers that need to read
// JSON from third parties with the same retry policy.
func (f *Fetcher) Client() *resty.Client {
	return f.client
}

// transport errors, throttling and server errors are worth another attempt;
// any other status is final
func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}

	code := resp.StatusCode()

	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (f *Fetcher) Fetch(ctx context.Context, target Target) ([]byte, error) {
	logger := f.logger.WithField("Url", target.Url)

	if target.RenderJs {
		if f.renderer != nil {
			logger.Debug("rendering {Url} in browser")
			return f.renderer.Render(ctx, target.Url)
		}

		logger.Warn("source requires rendering but no browser is configured, falling back to plain request")
	}

	logger.Debug("requesting {Url}")
	resp, err := f.client.R().
		SetContext(ctx).
		Get(target.Url)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s: %w", target.Url, err)
	}

	if !resp.IsSuccess() {
		return nil, NewStatusError(target.Url, resp.StatusCode())
	}

	body, err := Body(resp)
	if err != nil {
		return nil, fmt.Errorf("error reading body of %s: %w", target.Url, err)
	}

	logger.WithFields(logrus.Fields{
		"StatusCode": resp.StatusCode(),
		"Size":       len(body),
	}).Debug("downloaded {Url}")

	return body, nil
}

// Body returns the response body with any gzip or deflate encoding removed.
// Use it instead of resp.Body() on requests made through Client.
func Body(resp *resty.Response) ([]byte, error) {
	return decode(bytes.NewReader(resp.Body()), resp.Header().Get("Content-Encoding"))
}

// decode undoes the content encodings we advertise. The body is sniffed
// because some servers compress without saying so and some transports have
// already decompressed it.
func decode(r io.Reader, encoding string) ([]byte, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	switch {
	case len(body) > 2 && body[0] == 0x1f && body[1] == 0x8b:
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer gz.Close()

		return io.ReadAll(gz)
	case strings.EqualFold(strings.TrimSpace(encoding), "deflate"):
		// deflate is meant to be zlib wrapped but raw streams are common
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			fr := flate.NewReader(bytes.NewReader(body))
			defer fr.Close()

			return io.ReadAll(fr)
		}
		defer zr.Close()

		return io.ReadAll(zr)
	default:
		return body, nil
	}
}
