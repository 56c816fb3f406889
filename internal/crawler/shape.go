package crawler

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// Always dropped from cleaned HTML
var alwaysExcluded = []string{"script", "style", "noscript", "template", "link", "meta"}

// Text elements subject to the word-count threshold. Table cells and links are left alone
// so row structure survives.
const textElements = "p, span, li, h1, h2, h3, h4, h5, h6, blockquote, pre, label"

// Static stand-in for the browser overlay script, used on cached or HTTP-fetched pages
const overlaySelectors = `[class*="cookie"], [id*="cookie"], [class*="consent"], [id*="consent"], ` +
	`[class*="modal"], [class*="popup"], [aria-modal="true"], [role="dialog"], #onetrust-consent-sdk`

// ShapeOptions control HTML cleaning
type ShapeOptions struct {
	ExcludedTags       []string
	WordCountThreshold int
	RemoveOverlays     bool
}

// CleanHTML removes non-content tags, excluded tags, overlays and text elements with fewer
// than WordCountThreshold words, and returns the body markup.
func CleanHTML(raw string, opts ShapeOptions) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find(strings.Join(alwaysExcluded, ", ")).Remove()

	var excluded []string
	for _, tag := range opts.ExcludedTags {
		if tag = strings.TrimSpace(tag); tag != "" {
			excluded = append(excluded, tag)
		}
	}
	if len(excluded) > 0 {
		doc.Find(strings.Join(excluded, ", ")).Remove()
	}

	if opts.RemoveOverlays {
		doc.Find(overlaySelectors).Remove()
	}

	if opts.WordCountThreshold > 0 {
		doc.Find(textElements).Each(func(_ int, sel *goquery.Selection) {
			if sel.Find("img, table, a").Length() > 0 {
				return
			}
			if len(strings.Fields(sel.Text())) < opts.WordCountThreshold {
				sel.Remove()
			}
		})
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Html()
	}
	html, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return strings.TrimSpace(html), nil
}

// ToMarkdown converts HTML to markdown
func ToMarkdown(html string) (string, error) {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting to markdown: %w", err)
	}
	return md, nil
}
