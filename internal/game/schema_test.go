package game

import (
	"encoding/json"
	"testing"
)

func TestSchemaJSON(t *testing.T) {
	var decoded struct {
		Type       string                       `json:"type"`
		Title      string                       `json:"title"`
		Required   []string                     `json:"required"`
		Properties map[string]map[string]string `json:"properties"`
	}
	if err := json.Unmarshal([]byte(SchemaJSON()), &decoded); err != nil {
		t.Fatalf("SchemaJSON() is not valid JSON: %v", err)
	}

	if decoded.Type != "object" {
		t.Errorf("type = %q, want object", decoded.Type)
	}
	if decoded.Title != SchemaTitle {
		t.Errorf("title = %q, want %q", decoded.Title, SchemaTitle)
	}
	if len(decoded.Properties) != 2 {
		t.Fatalf("got %d properties, want exactly 2", len(decoded.Properties))
	}

	for _, name := range []string{"away_team", "home_team"} {
		prop, ok := decoded.Properties[name]
		if !ok {
			t.Errorf("missing property %q", name)
			continue
		}
		if prop["type"] != "string" {
			t.Errorf("%s type = %q, want string", name, prop["type"])
		}
		if prop["description"] == "" {
			t.Errorf("%s has no description", name)
		}
	}

	required := map[string]bool{}
	for _, r := range decoded.Required {
		required[r] = true
	}
	if len(decoded.Required) != 2 || !required["away_team"] || !required["home_team"] {
		t.Errorf("required = %v, want [away_team home_team]", decoded.Required)
	}
}
