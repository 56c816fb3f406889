package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// Launches a real Chrome; skipped with -short.
func TestBrowserEngines_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Test</title></head><body>` + // nolint:errcheck
			`<div class="cookie-banner" style="position:fixed;top:0;left:0;width:100%;height:100%">Accept</div>` +
			`<table><tr class="Table__TR"><td><a>Boston</a></td></tr></table></body></html>`))
	}))
	defer server.Close()

	for _, engine := range []Engine{EngineRod, EngineChromedp} {
		t.Run(string(engine), func(t *testing.T) {
			f, err := New(engine, Options{Headless: true})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			if err := f.Start(ctx); err != nil {
				t.Skipf("browser unavailable: %v", err)
			}
			defer f.Close() // nolint:errcheck

			page, err := f.Fetch(ctx, server.URL, FetchOptions{Timeout: 30 * time.Second, RemoveOverlays: true})
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if page.Title != "Test" {
				t.Errorf("Title = %q", page.Title)
			}
			if !strings.Contains(page.HTML, "Boston") {
				t.Error("expected table content in HTML")
			}
			if strings.Contains(page.HTML, "cookie-banner") {
				t.Error("expected overlay to be removed")
			}
		})
	}
}
