package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/pfrederiksen/nba-schedule/internal/logger"
)

// RodFetcher drives Chrome through go-rod
type RodFetcher struct {
	opts     Options
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewRodFetcher creates an unstarted rod fetcher
func NewRodFetcher(opts Options) *RodFetcher {
	return &RodFetcher{opts: opts}
}

// Start launches Chrome and connects to it
func (f *RodFetcher) Start(ctx context.Context) error {
	l := launcher.New().Context(ctx).Headless(f.opts.Headless)
	if f.opts.Proxy != "" {
		l = l.Proxy(f.opts.Proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	f.browser = b
	f.launcher = l

	logger.Debug("Browser started", logger.Fields{
		"engine":   string(EngineRod),
		"headless": f.opts.Headless,
		"proxy":    f.opts.Proxy,
	})
	return nil
}

// Fetch opens url in a new tab, waits for the load event and captures the HTML
func (f *RodFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*Page, error) {
	if f.browser == nil {
		return nil, fmt.Errorf("browser not started")
	}
	start := time.Now()

	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close() // nolint:errcheck

	page = page.Context(ctx).Timeout(timeoutOrDefault(opts.Timeout))

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.opts.UserAgent}); err != nil {
		return nil, fmt.Errorf("setting user agent: %w", err)
	}

	// Capture the status of the main document response
	var mu sync.Mutex
	status := 0
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return nil, fmt.Errorf("enabling network events: %w", err)
	}
	waitCtx, cancelWait := context.WithCancel(ctx)
	defer cancelWait()
	go page.Context(waitCtx).EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		mu.Lock()
		status = e.Response.Status
		mu.Unlock()
		return true
	})()

	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to wait for page load: %w", err)
	}

	if opts.ProcessIframes {
		if _, err := page.Eval(inlineIframesJS); err != nil {
			logger.Warn("Inlining iframes failed", logger.Fields{"url": url, "error": err.Error()})
		}
	}
	if opts.RemoveOverlays {
		if _, err := page.Eval(removeOverlaysJS); err != nil {
			logger.Warn("Removing overlays failed", logger.Fields{"url": url, "error": err.Error()})
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("reading page HTML: %w", err)
	}

	result := &Page{
		URL:      url,
		HTML:     html,
		LoadTime: time.Since(start),
	}
	if info, err := page.Info(); err == nil {
		result.URL = info.URL
		result.Title = info.Title
	}

	mu.Lock()
	result.StatusCode = status
	mu.Unlock()
	if result.StatusCode == 0 {
		result.StatusCode = 200
	}

	return result, nil
}

// Close shuts down the browser and the launcher process
func (f *RodFetcher) Close() error {
	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.launcher != nil {
		f.launcher.Kill()
		f.launcher = nil
	}
	return err
}
