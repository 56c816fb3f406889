package extraction

import (
	"context"
	"fmt"
)

// InputFormat selects which representation of the page a strategy reads
type InputFormat string

const (
	// InputHTML is the cleaned HTML (excluded tags and short text blocks removed), not the
	// page source; use InputRawHTML for the HTML exactly as fetched
	InputHTML     InputFormat = "html"
	InputRawHTML  InputFormat = "raw_html"
	InputMarkdown InputFormat = "markdown"
)

// ParseInputFormat validates an input format name; empty means html
func ParseInputFormat(s string) (InputFormat, error) {
	switch f := InputFormat(s); f {
	case InputHTML, InputRawHTML, InputMarkdown:
		return f, nil
	case "":
		return InputHTML, nil
	default:
		return "", fmt.Errorf("invalid input format: %s (must be html, raw_html, or markdown)", s)
	}
}

// Content holds the representations of a page produced by the crawler
type Content struct {
	URL         string
	RawHTML     string
	CleanedHTML string
	Markdown    string
}

// For returns the representation for format, falling back to raw HTML when the
// requested one is empty
func (c Content) For(format InputFormat) string {
	var s string
	switch format {
	case InputHTML:
		s = c.CleanedHTML
	case InputMarkdown:
		s = c.Markdown
	}
	if s == "" {
		return c.RawHTML
	}
	return s
}

// Strategy extracts rows from a page
type Strategy interface {
	Name() string
	Extract(ctx context.Context, content Content) ([]map[string]any, error)
}
