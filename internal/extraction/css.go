package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FieldType selects how a field value is read from the matched element
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldHTML      FieldType = "html"
	FieldAttribute FieldType = "attribute"
)

// Field maps a selector inside a row to a record key
type Field struct {
	Name      string    `json:"name"`
	Selector  string    `json:"selector"`
	Type      FieldType `json:"type"`
	Attribute string    `json:"attribute,omitempty"`
	Default   any       `json:"default,omitempty"`
}

// CSSSchema describes rows and their fields
type CSSSchema struct {
	Name         string  `json:"name"`
	BaseSelector string  `json:"baseSelector"`
	Fields       []Field `json:"fields"`
}

// NBACSSSchema is the selector schema for the ESPN schedule page. Both fields use the
// first anchor in the row, so team1 and team2 carry the same value.
func NBACSSSchema() CSSSchema {
	return CSSSchema{
		Name:         "NBA Game",
		BaseSelector: "tr.Table__TR",
		Fields: []Field{
			{Name: "team1", Selector: "a", Type: FieldText},
			{Name: "team2", Selector: "a", Type: FieldText},
		},
	}
}

// ParseCSSSchema decodes a schema from JSON and validates it
func ParseCSSSchema(data []byte) (CSSSchema, error) {
	var schema CSSSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return CSSSchema{}, fmt.Errorf("parsing schema: %w", err)
	}
	if err := schema.Validate(); err != nil {
		return CSSSchema{}, err
	}
	return schema, nil
}

// Validate checks that the schema can be applied
func (s CSSSchema) Validate() error {
	if strings.TrimSpace(s.BaseSelector) == "" {
		return fmt.Errorf("schema %q has no base selector", s.Name)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %q has no fields", s.Name)
	}
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		switch f.Type {
		case FieldText, FieldHTML, "":
		case FieldAttribute:
			if f.Attribute == "" {
				return fmt.Errorf("field %q of type attribute needs an attribute name", f.Name)
			}
		default:
			return fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}
	}
	return nil
}

// CSSStrategy extracts rows with a selector schema
type CSSStrategy struct {
	schema      CSSSchema
	inputFormat InputFormat
}

// NewCSSStrategy validates schema and returns a strategy reading the raw page HTML
func NewCSSStrategy(schema CSSSchema) (*CSSStrategy, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &CSSStrategy{schema: schema, inputFormat: InputRawHTML}, nil
}

// Name returns "css"
func (s *CSSStrategy) Name() string {
	return "css"
}

// Schema returns the strategy's schema
func (s *CSSStrategy) Schema() CSSSchema {
	return s.schema
}

// Extract returns one record per base-selector match. Within a row each field takes the
// first element matching its selector; a field that matches nothing is omitted unless it
// has a default. Rows that end up with no fields are dropped. The result is never nil.
func (s *CSSStrategy) Extract(_ context.Context, content Content) ([]map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.For(s.inputFormat)))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	records := make([]map[string]any, 0)
	doc.Find(s.schema.BaseSelector).Each(func(_ int, row *goquery.Selection) {
		rec := make(map[string]any, len(s.schema.Fields))
		for _, f := range s.schema.Fields {
			if v, ok := fieldValue(row, f); ok {
				rec[f.Name] = v
			} else if f.Default != nil {
				rec[f.Name] = f.Default
			}
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	})

	return records, nil
}

func fieldValue(row *goquery.Selection, f Field) (string, bool) {
	sel := row.Find(f.Selector).First()
	if sel.Length() == 0 {
		return "", false
	}

	switch f.Type {
	case FieldHTML:
		html, err := sel.Html()
		if err != nil {
			return "", false
		}
		return html, true
	case FieldAttribute:
		return sel.Attr(f.Attribute)
	default:
		return strings.TrimSpace(sel.Text()), true
	}
}
