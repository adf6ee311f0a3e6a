package fetch

import (
	"context"
	"fmt"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"sync"
)

// BrowserRenderer renders JavaScript heavy sources in a remote Chrome managed
// by the rod launcher service.
type BrowserRenderer struct {
	devtoolsUrl string

	mu      sync.Mutex
	browser *rod.Browser
}

func NewBrowserRenderer(devtoolsUrl string) *BrowserRenderer {
	return &BrowserRenderer{devtoolsUrl: devtoolsUrl}
}

func (r *BrowserRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l, err := launcher.NewManaged(r.devtoolsUrl)
	if err != nil {
		return nil, fmt.Errorf("error creating launcher for %s: %w", r.devtoolsUrl, err)
	}

	client, err := l.Client()
	if err != nil {
		return nil, fmt.Errorf("error launching browser: %w", err)
	}

	browser := rod.New().Client(client)
	if err = browser.Connect(); err != nil {
		return nil, fmt.Errorf("error connecting to browser: %w", err)
	}

	r.browser = browser

	return browser, nil
}

func (r *BrowserRenderer) Render(ctx context.Context, url string) ([]byte, error) {
	browser, err := r.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("error opening page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	waitNetwork := page.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err = page.Navigate(url); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	waitNetwork()

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("error reading rendered document of %s: %w", url, err)
	}

	return []byte(html), nil
}

func (r *BrowserRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}

	err := r.browser.Close()
	r.browser = nil

	return err
}
