package crawler

import (
	"time"

	"github.com/pfrederiksen/nba-schedule/internal/browser"
	"github.com/pfrederiksen/nba-schedule/internal/cache"
	"github.com/pfrederiksen/nba-schedule/internal/extraction"
)

const DefaultPageTimeout = 80 * time.Second

// BrowserConfig selects and configures the page fetcher
type BrowserConfig struct {
	Engine    browser.Engine
	Headless  bool
	Proxy     string
	UserAgent string
	Verbose   bool
}

// DefaultBrowserConfig is a headless rod browser
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Engine:   browser.EngineRod,
		Headless: true,
	}
}

// RunConfig controls one call to Run
type RunConfig struct {
	Strategy              extraction.Strategy
	CacheMode             cache.Mode
	PageTimeout           time.Duration
	WordCountThreshold    int
	ExcludedTags          []string
	RemoveOverlayElements bool
	ProcessIframes        bool
}

// LLMRunConfig is the run configuration paired with the LLM strategy: page chrome
// (forms, header, footer, nav) is stripped and overlays removed before prompting.
func LLMRunConfig(strategy extraction.Strategy) RunConfig {
	return RunConfig{
		Strategy:              strategy,
		CacheMode:             cache.ModeBypass,
		PageTimeout:           DefaultPageTimeout,
		WordCountThreshold:    1,
		ExcludedTags:          []string{"form", "header", "footer", "nav"},
		RemoveOverlayElements: true,
		ProcessIframes:        false,
	}
}

// CSSRunConfig is the run configuration paired with the selector strategy
func CSSRunConfig(strategy extraction.Strategy) RunConfig {
	return RunConfig{
		Strategy:           strategy,
		CacheMode:          cache.ModeBypass,
		PageTimeout:        DefaultPageTimeout,
		WordCountThreshold: 1,
		ProcessIframes:     false,
	}
}
