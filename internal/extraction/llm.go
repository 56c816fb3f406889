package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonrepair"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/nba-schedule/internal/game"
	"github.com/pfrederiksen/nba-schedule/internal/llm"
	"github.com/pfrederiksen/nba-schedule/internal/logger"
)

const (
	NBAInstruction = "Extract the NBA games from the page. The data should include the away team and the home team."

	DefaultChunkTokenThreshold = 800
	DefaultOverlapRate         = 0.1
	DefaultWordTokenRate       = 1.3
	DefaultConcurrency         = 4

	ExtractionSchema = "schema"
	ExtractionBlock  = "block"
)

// Chatter sends a chat completion; *llm.Client implements it
type Chatter interface {
	Chat(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// LLMConfig configures an LLMStrategy
type LLMConfig struct {
	Provider     string
	APIToken     string
	BaseURL      string
	ExtraHeaders map[string]string

	Instruction    string
	Schema         string // JSON schema of one row; used when ExtractionType is "schema"
	ExtractionType string

	Temperature *float64
	MaxTokens   *int

	ApplyChunking       bool
	ChunkTokenThreshold int
	OverlapRate         float64
	WordTokenRate       float64
	InputFormat         InputFormat

	// Concurrency bounds parallel chunk requests; zero picks 4, or 1 for local providers
	Concurrency       int
	RequestsPerSecond float64
}

// NBALLMConfig returns the configuration used for the schedule page
func NBALLMConfig(provider, apiToken, baseURL string) LLMConfig {
	temperature := 0.0
	maxTokens := 2000
	return LLMConfig{
		Provider:            provider,
		APIToken:            apiToken,
		BaseURL:             baseURL,
		Instruction:         NBAInstruction,
		Schema:              game.SchemaJSON(),
		ExtractionType:      ExtractionSchema,
		Temperature:         &temperature,
		MaxTokens:           &maxTokens,
		ApplyChunking:       true,
		ChunkTokenThreshold: DefaultChunkTokenThreshold,
		OverlapRate:         DefaultOverlapRate,
		WordTokenRate:       DefaultWordTokenRate,
		InputFormat:         InputHTML,
	}
}

// LLMStrategy extracts rows by prompting a chat model
type LLMStrategy struct {
	cfg    LLMConfig
	client Chatter

	mu    sync.Mutex
	usage llm.Usage
}

// NewLLMStrategy builds an llm.Client from cfg
func NewLLMStrategy(cfg LLMConfig) (*LLMStrategy, error) {
	client, err := llm.New(llm.Config{
		Provider:          cfg.Provider,
		APIToken:          cfg.APIToken,
		BaseURL:           cfg.BaseURL,
		Headers:           cfg.ExtraHeaders,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}
	if cfg.Concurrency == 0 && client.Provider().IsLocal() {
		cfg.Concurrency = 1
	}
	return NewLLMStrategyWithClient(cfg, client), nil
}

// NewLLMStrategyWithClient uses an existing client, filling zero-valued settings with defaults
func NewLLMStrategyWithClient(cfg LLMConfig, client Chatter) *LLMStrategy {
	if cfg.ChunkTokenThreshold <= 0 {
		cfg.ChunkTokenThreshold = DefaultChunkTokenThreshold
	}
	if cfg.OverlapRate <= 0 || cfg.OverlapRate >= 1 {
		cfg.OverlapRate = DefaultOverlapRate
	}
	if cfg.WordTokenRate <= 0 {
		cfg.WordTokenRate = DefaultWordTokenRate
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = InputHTML
	}
	if cfg.ExtractionType == "" {
		cfg.ExtractionType = ExtractionSchema
		if cfg.Schema == "" {
			cfg.ExtractionType = ExtractionBlock
		}
	}
	return &LLMStrategy{cfg: cfg, client: client}
}

// Name returns "llm"
func (s *LLMStrategy) Name() string {
	return "llm"
}

// Config returns the effective configuration
func (s *LLMStrategy) Config() LLMConfig {
	return s.cfg
}

// Usage returns tokens consumed by all Extract calls so far
func (s *LLMStrategy) Usage() llm.Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// Extract chunks the page and prompts the model once per chunk. A failed chunk yields a
// single error record in its place; results keep chunk order.
func (s *LLMStrategy) Extract(ctx context.Context, content Content) ([]map[string]any, error) {
	chunks := s.chunk(content.For(s.cfg.InputFormat))
	results := make([][]map[string]any, len(chunks))

	logger.Debug("Starting LLM extraction", logger.Fields{
		"url":    content.URL,
		"chunks": len(chunks),
		"format": string(s.cfg.InputFormat),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			rows, err := s.extractChunk(gctx, content.URL, i, chunk)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("LLM chunk failed", logger.Fields{"chunk": i, "error": err.Error()})
				rows = []map[string]any{errorRecord(i, err)}
			}
			results[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extracting with LLM: %w", err)
	}

	records := make([]map[string]any, 0)
	for _, rows := range results {
		records = append(records, rows...)
	}
	return records, nil
}

func (s *LLMStrategy) extractChunk(ctx context.Context, url string, index int, chunk string) ([]map[string]any, error) {
	resp, err := s.client.Chat(ctx, llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: s.buildPrompt(url, chunk)}},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.usage.Add(resp.Usage)
	s.mu.Unlock()

	rows, err := ParseBlocks(resp.Content)
	if err != nil {
		return nil, err
	}
	if s.cfg.ExtractionType == ExtractionBlock {
		for _, r := range rows {
			if _, ok := r["index"]; !ok {
				r["index"] = index
			}
		}
	}
	return rows, nil
}

func errorRecord(index int, err error) map[string]any {
	return map[string]any{
		"index":   index,
		"error":   true,
		"tags":    []string{"error"},
		"content": err.Error(),
	}
}

// chunk splits text into word windows of about ChunkTokenThreshold estimated tokens,
// with consecutive windows sharing OverlapRate of their words
func (s *LLMStrategy) chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	tokens := int(float64(len(words)) * s.cfg.WordTokenRate)
	if !s.cfg.ApplyChunking || tokens <= s.cfg.ChunkTokenThreshold {
		return []string{strings.Join(words, " ")}
	}

	size := int(float64(s.cfg.ChunkTokenThreshold) / s.cfg.WordTokenRate)
	if size < 1 {
		size = 1
	}
	overlap := int(float64(size) * s.cfg.OverlapRate)
	step := size - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

func (s *LLMStrategy) buildPrompt(url, chunk string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Here is the content from the URL:\n<url>%s</url>\n\n", url)
	fmt.Fprintf(&b, "<content>\n%s\n</content>\n\n", chunk)

	if s.cfg.Instruction != "" {
		fmt.Fprintf(&b, "The user has made the following request for what information to extract from the above content:\n\n<user_request>\n%s\n</user_request>\n\n", s.cfg.Instruction)
	}

	if s.cfg.ExtractionType == ExtractionSchema && s.cfg.Schema != "" {
		fmt.Fprintf(&b, "Extract every matching item as a JSON object conforming to this schema:\n\n<schema_block>\n%s\n</schema_block>\n\n", s.cfg.Schema)
		b.WriteString("Return a JSON array of those objects. Include only items that are present in the content. ")
	} else {
		b.WriteString("Break the content into semantically relevant blocks. Return a JSON array of objects with the keys \"index\", \"tags\" (a list of short labels) and \"content\" (a list of strings). ")
	}
	b.WriteString("Wrap the array in <blocks>...</blocks> tags and output nothing else.")

	return b.String()
}

var (
	thinkRe  = regexp.MustCompile(`(?is)<think>.*?</think>`)
	blocksRe = regexp.MustCompile(`(?is)<blocks>(.*?)</blocks>`)
	fenceRe  = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

	// Some chat templates open the reasoning block in the prompt, so the reply only closes it
	thinkTailRe = regexp.MustCompile(`(?is)^.*</think>`)
)

// ParseBlocks pulls row objects out of a model reply. Reasoning blocks are dropped, a
// <blocks> wrapper or a fenced code block narrows the payload, and malformed JSON is
// repaired before decoding. A single object becomes a one-element list.
func ParseBlocks(reply string) ([]map[string]any, error) {
	payload := thinkRe.ReplaceAllString(reply, "")
	payload = thinkTailRe.ReplaceAllString(payload, "")
	if m := blocksRe.FindStringSubmatch(payload); m != nil {
		payload = m[1]
	}
	if m := fenceRe.FindStringSubmatch(payload); m != nil {
		payload = m[1]
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, llm.ErrEmptyResponse
	}

	var decoded any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(payload)
		if repairErr != nil {
			return nil, fmt.Errorf("parsing model reply: %w (repair: %v)", err, repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &decoded); err != nil {
			return nil, fmt.Errorf("parsing repaired model reply: %w", err)
		}
	}

	switch v := decoded.(type) {
	case []any:
		return objects(v), nil
	case map[string]any:
		// Some models wrap the list, e.g. {"games": [...]}
		if len(v) == 1 {
			for _, inner := range v {
				if list, ok := inner.([]any); ok {
					return objects(list), nil
				}
			}
		}
		return []map[string]any{v}, nil
	default:
		return nil, fmt.Errorf("model reply is not an object or array: %T", decoded)
	}
}

// objects keeps the JSON objects of list, skipping scalars and nested arrays
func objects(list []any) []map[string]any {
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			rows = append(rows, obj)
		}
	}
	return rows
}
