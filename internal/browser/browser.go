package browser

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"
	DefaultTimeout   = 80 * time.Second
)

// Engine selects the Fetcher implementation
type Engine string

const (
	EngineRod      Engine = "rod"
	EngineChromedp Engine = "chromedp"
	EngineHTTP     Engine = "http"
)

// ParseEngine validates an engine name; empty means rod
func ParseEngine(s string) (Engine, error) {
	switch e := Engine(strings.ToLower(strings.TrimSpace(s))); e {
	case EngineRod, EngineChromedp, EngineHTTP:
		return e, nil
	case "":
		return EngineRod, nil
	default:
		return "", fmt.Errorf("invalid engine: %s (must be rod, chromedp, or http)", s)
	}
}

// Options configures a Fetcher
type Options struct {
	Headless  bool
	Proxy     string
	UserAgent string
	Verbose   bool
}

// FetchOptions control a single page load
type FetchOptions struct {
	Timeout        time.Duration
	RemoveOverlays bool
	ProcessIframes bool
}

// Page is a loaded page
type Page struct {
	URL        string // final URL after redirects
	HTML       string
	Title      string
	StatusCode int
	LoadTime   time.Duration
}

// Fetcher loads pages. Start must be called before Fetch, Close releases the session.
type Fetcher interface {
	Start(ctx context.Context) error
	Fetch(ctx context.Context, url string, opts FetchOptions) (*Page, error)
	Close() error
}

// New returns a Fetcher for the engine
func New(engine Engine, opts Options) (Fetcher, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	switch engine {
	case EngineRod, "":
		return NewRodFetcher(opts), nil
	case EngineChromedp:
		return NewChromedpFetcher(opts), nil
	case EngineHTTP:
		return NewHTTPFetcher(opts)
	default:
		return nil, fmt.Errorf("invalid engine: %s", engine)
	}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

// removeOverlaysJS removes fixed or sticky elements that cover a large part of the
// viewport, plus common consent and modal containers. Returns the number removed.
const removeOverlaysJS = `() => {
	const selectors = [
		'[class*="cookie"]', '[id*="cookie"]', '[class*="consent"]', '[id*="consent"]',
		'[class*="modal"]', '[class*="popup"]', '[class*="overlay"]', '[aria-modal="true"]',
		'[role="dialog"]', '#onetrust-consent-sdk', '.fc-consent-root'
	];
	let removed = 0;
	for (const sel of selectors) {
		for (const el of document.querySelectorAll(sel)) {
			el.remove();
			removed++;
		}
	}
	const vw = window.innerWidth, vh = window.innerHeight;
	for (const el of document.querySelectorAll('body *')) {
		const style = window.getComputedStyle(el);
		if (style.position !== 'fixed' && style.position !== 'sticky') continue;
		const r = el.getBoundingClientRect();
		if (r.width * r.height >= vw * vh * 0.3 || parseInt(style.zIndex || '0', 10) > 999) {
			el.remove();
			removed++;
		}
	}
	document.body.style.overflow = 'auto';
	return removed;
}`

// inlineIframesJS replaces same-origin iframes with a div holding their body markup.
// Cross-origin frames are left as-is. Returns the number inlined.
const inlineIframesJS = `() => {
	let inlined = 0;
	for (const frame of Array.from(document.querySelectorAll('iframe'))) {
		let body;
		try {
			body = frame.contentDocument && frame.contentDocument.body;
		} catch (e) {
			continue;
		}
		if (!body) continue;
		const div = document.createElement('div');
		div.className = 'iframe-content';
		div.innerHTML = body.innerHTML;
		frame.replaceWith(div);
		inlined++;
	}
	return inlined;
}`

// asExpression turns an arrow-function script into an immediately invoked expression
func asExpression(fn string) string {
	return "(" + fn + ")()"
}
