package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/pfrederiksen/nba-schedule/internal/logger"
)

// ChromedpFetcher drives Chrome through chromedp
type ChromedpFetcher struct {
	opts          Options
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromedpFetcher creates an unstarted chromedp fetcher
func NewChromedpFetcher(opts Options) *ChromedpFetcher {
	return &ChromedpFetcher{opts: opts}
}

func (f *ChromedpFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent(f.opts.UserAgent),
	)
	if f.opts.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(f.opts.Proxy))
	}
	return opts
}

// Start launches Chrome
func (f *ChromedpFetcher) Start(ctx context.Context) error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("start browser: %w", err)
	}

	f.allocCancel = allocCancel
	f.browserCtx = browserCtx
	f.browserCancel = browserCancel

	logger.Debug("Browser started", logger.Fields{
		"engine":   string(EngineChromedp),
		"headless": f.opts.Headless,
		"proxy":    f.opts.Proxy,
	})
	return nil
}

// Fetch opens url in a new tab and captures the rendered HTML
func (f *ChromedpFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*Page, error) {
	if f.browserCtx == nil {
		return nil, fmt.Errorf("browser not started")
	}
	start := time.Now()

	tabCtx, tabCancel := chromedp.NewContext(f.browserCtx)
	defer tabCancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, timeoutOrDefault(opts.Timeout))
	defer timeoutCancel()

	// Abort the tab when the caller's context is cancelled
	stop := context.AfterFunc(ctx, timeoutCancel)
	defer stop()

	var mu sync.Mutex
	status := 0
	chromedp.ListenTarget(timeoutCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			mu.Lock()
			if status == 0 {
				status = int(e.Response.Status)
			}
			mu.Unlock()
		}
	})

	var html, title, finalURL string
	var scriptResult int

	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if opts.ProcessIframes {
		tasks = append(tasks, chromedp.Evaluate(asExpression(inlineIframesJS), &scriptResult))
	}
	if opts.RemoveOverlays {
		tasks = append(tasks, chromedp.Evaluate(asExpression(removeOverlaysJS), &scriptResult))
	}
	tasks = append(tasks,
		chromedp.Title(&title),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := chromedp.Run(timeoutCtx, tasks); err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	mu.Lock()
	code := status
	mu.Unlock()
	if code == 0 {
		code = 200
	}

	return &Page{
		URL:        finalURL,
		HTML:       html,
		Title:      title,
		StatusCode: code,
		LoadTime:   time.Since(start),
	}, nil
}

// Close shuts down the browser
func (f *ChromedpFetcher) Close() error {
	if f.browserCancel != nil {
		f.browserCancel()
		f.browserCancel = nil
	}
	if f.allocCancel != nil {
		f.allocCancel()
		f.allocCancel = nil
	}
	f.browserCtx = nil
	return nil
}
