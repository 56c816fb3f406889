package llm

import "strings"

// Provider identifies an LLM backend and model
type Provider struct {
	Name  string
	Model string
}

var defaultBaseURLs = map[string]string{
	"ollama":     "http://localhost:11434/v1",
	"openai":     "https://api.openai.com/v1",
	"groq":       "https://api.groq.com/openai/v1",
	"deepseek":   "https://api.deepseek.com/v1",
	"openrouter": "https://openrouter.ai/api/v1",
}

// ParseProvider splits "name/model". A string without a slash is treated as an OpenAI model.
// Only the first slash separates the name, so "openrouter/meta-llama/llama-3" keeps the
// model's own slash.
func ParseProvider(s string) Provider {
	s = strings.TrimSpace(s)
	name, model, ok := strings.Cut(s, "/")
	if !ok {
		return Provider{Name: "openai", Model: s}
	}
	return Provider{Name: strings.ToLower(name), Model: model}
}

// String returns the "name/model" form
func (p Provider) String() string {
	return p.Name + "/" + p.Model
}

// DefaultBaseURL returns the known endpoint for the provider, or "" if unknown
func (p Provider) DefaultBaseURL() string {
	return defaultBaseURLs[p.Name]
}

// IsLocal reports whether the provider runs locally and needs no API token
func (p Provider) IsLocal() bool {
	return p.Name == "ollama"
}
