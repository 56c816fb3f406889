package game

import "encoding/json"

// SchemaTitle is the title of the schema handed to LLM extraction
const SchemaTitle = "NBAGame"

// Schema is the subset of JSON Schema needed to describe a flat row of string fields.
type Schema struct {
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
	Title      string             `json:"title,omitempty"`
	// Description is shown to the model next to each field
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
}

// JSONSchema describes a Game row for extraction engines: two required string
// properties, away_team and home_team.
func JSONSchema() *Schema {
	return &Schema{
		Properties: map[string]*Schema{
			"away_team": {
				Description: "Name of the away team",
				Title:       "Away Team",
				Type:        "string",
			},
			"home_team": {
				Description: "name of the home team",
				Title:       "Home Team",
				Type:        "string",
			},
		},
		Required: []string{"away_team", "home_team"},
		Title:    SchemaTitle,
		Type:     "object",
	}
}

// SchemaJSON returns the JSON encoding of JSONSchema
func SchemaJSON() string {
	data, err := json.Marshal(JSONSchema())
	if err != nil {
		// Static value; marshaling cannot fail.
		panic(err)
	}
	return string(data)
}
