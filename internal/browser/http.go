package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// HTTPFetcher fetches pages without a browser. JavaScript is not executed, so overlay
// removal and iframe inlining are not available.
type HTTPFetcher struct {
	opts   Options
	client *http.Client
}

// NewHTTPFetcher creates an HTTP fetcher, routing through opts.Proxy if set
func NewHTTPFetcher(opts Options) (*HTTPFetcher, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parsing proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &HTTPFetcher{
		opts:   opts,
		client: &http.Client{Transport: transport},
	}, nil
}

// Start is a no-op for the HTTP engine
func (f *HTTPFetcher) Start(context.Context) error {
	return nil
}

// Fetch GETs url. A status of 400 or above is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string, opts FetchOptions) (*Page, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(opts.Timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	html := string(body)
	title := ""
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return &Page{
		URL:        resp.Request.URL.String(),
		HTML:       html,
		Title:      title,
		StatusCode: resp.StatusCode,
		LoadTime:   time.Since(start),
	}, nil
}

// Close releases idle connections
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
