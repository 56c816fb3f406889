package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pfrederiksen/nba-schedule/internal/browser"
	"github.com/pfrederiksen/nba-schedule/internal/cache"
	"github.com/pfrederiksen/nba-schedule/internal/extraction"
	"github.com/pfrederiksen/nba-schedule/internal/logger"
)

// ErrNotStarted is reported when Run is called before Start or after Close
var ErrNotStarted = errors.New("crawler not started")

// Result is the outcome of one Run
type Result struct {
	URL              string        `json:"url"`
	Success          bool          `json:"success"`
	ErrorMessage     string        `json:"error_message,omitempty"`
	HTML             string        `json:"-"`
	CleanedHTML      string        `json:"-"`
	Markdown         string        `json:"-"`
	ExtractedContent string        `json:"extracted_content,omitempty"`
	StatusCode       int           `json:"status_code,omitempty"`
	FromCache        bool          `json:"from_cache"`
	LoadTime         time.Duration `json:"load_time"`
}

func failure(url string, err error) *Result {
	logger.IncrCounter("crawl.failures")
	return &Result{URL: url, Success: false, ErrorMessage: err.Error()}
}

// Option configures a Crawler
type Option func(*Crawler)

// WithCache sets the page cache consulted according to RunConfig.CacheMode
func WithCache(store cache.Store) Option {
	return func(c *Crawler) {
		c.cache = store
	}
}

// WithFetcher replaces the engine selected by BrowserConfig
func WithFetcher(f browser.Fetcher) Option {
	return func(c *Crawler) {
		c.fetcher = f
	}
}

// Crawler fetches and extracts pages
type Crawler struct {
	cfg     BrowserConfig
	fetcher browser.Fetcher
	cache   cache.Store
	started bool
}

// New creates a Crawler. No browser is launched until Start.
func New(cfg BrowserConfig, opts ...Option) (*Crawler, error) {
	c := &Crawler{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.fetcher == nil {
		f, err := browser.New(cfg.Engine, browser.Options{
			Headless:  cfg.Headless,
			Proxy:     cfg.Proxy,
			UserAgent: cfg.UserAgent,
			Verbose:   cfg.Verbose,
		})
		if err != nil {
			return nil, fmt.Errorf("creating fetcher: %w", err)
		}
		c.fetcher = f
	}

	return c, nil
}

// Start opens the browser session
func (c *Crawler) Start(ctx context.Context) error {
	if c.started {
		return nil
	}
	if err := c.fetcher.Start(ctx); err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	c.started = true
	return nil
}

// Close releases the browser session and the cache
func (c *Crawler) Close() error {
	var errs []error
	if c.started {
		if err := c.fetcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing browser: %w", err))
		}
		c.started = false
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run crawls pageURL once. It never returns nil and never panics; any failure is
// reported with Success=false.
func (c *Crawler) Run(ctx context.Context, pageURL string, cfg RunConfig) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			result = failure(pageURL, fmt.Errorf("crawl panicked: %v", r))
		}
	}()

	if !c.started {
		return failure(pageURL, ErrNotStarted)
	}

	if u, err := url.Parse(pageURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return failure(pageURL, fmt.Errorf("invalid URL: %q", pageURL))
	}

	start := time.Now()
	res := &Result{URL: pageURL}

	if c.cache != nil && cfg.CacheMode.CanRead() {
		entry, err := c.cache.Get(ctx, pageURL)
		switch {
		case err == nil:
			res.HTML = entry.HTML
			res.StatusCode = entry.StatusCode
			res.FromCache = true
			logger.IncrCounter("cache.hits")
			logger.Debug("Serving page from cache", logger.Fields{"url": pageURL, "cached_at": entry.CachedAt})
		case errors.Is(err, cache.ErrMiss):
			logger.Debug("Cache miss", logger.Fields{"url": pageURL})
		default:
			logger.Warn("Cache read failed", logger.Fields{"url": pageURL, "error": err.Error()})
		}
	}

	if !res.FromCache {
		timeout := cfg.PageTimeout
		if timeout <= 0 {
			timeout = DefaultPageTimeout
		}

		page, err := c.fetcher.Fetch(ctx, pageURL, browser.FetchOptions{
			Timeout:        timeout,
			RemoveOverlays: cfg.RemoveOverlayElements,
			ProcessIframes: cfg.ProcessIframes,
		})
		if err != nil {
			return failure(pageURL, fmt.Errorf("fetching page: %w", err))
		}
		logger.RecordTiming("crawl.fetch", page.LoadTime)

		res.HTML = page.HTML
		res.StatusCode = page.StatusCode
		if page.URL != "" {
			res.URL = page.URL
		}

		if c.cache != nil && cfg.CacheMode.CanWrite() {
			entry := &cache.Entry{URL: pageURL, HTML: page.HTML, StatusCode: page.StatusCode}
			if err := c.cache.Set(ctx, entry); err != nil {
				logger.Warn("Cache write failed", logger.Fields{"url": pageURL, "error": err.Error()})
			}
		}
	}

	cleaned, err := CleanHTML(res.HTML, ShapeOptions{
		ExcludedTags:       cfg.ExcludedTags,
		WordCountThreshold: cfg.WordCountThreshold,
		RemoveOverlays:     cfg.RemoveOverlayElements,
	})
	if err != nil {
		return failure(pageURL, err)
	}
	res.CleanedHTML = cleaned

	if md, err := ToMarkdown(cleaned); err != nil {
		logger.Warn("Markdown conversion failed", logger.Fields{"url": pageURL, "error": err.Error()})
	} else {
		res.Markdown = md
	}

	if cfg.Strategy != nil {
		records, err := cfg.Strategy.Extract(ctx, extraction.Content{
			URL:         res.URL,
			RawHTML:     res.HTML,
			CleanedHTML: res.CleanedHTML,
			Markdown:    res.Markdown,
		})
		if err != nil {
			return failure(pageURL, fmt.Errorf("extracting content: %w", err))
		}

		data, err := json.Marshal(records)
		if err != nil {
			return failure(pageURL, fmt.Errorf("encoding extracted content: %w", err))
		}
		res.ExtractedContent = string(data)

		logger.Debug("Extraction finished", logger.Fields{
			"url":      res.URL,
			"strategy": cfg.Strategy.Name(),
			"records":  len(records),
		})
	}

	res.Success = true
	res.LoadTime = time.Since(start)
	logger.IncrCounter("crawl.pages")
	return res
}
