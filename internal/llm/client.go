package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/nba-schedule/internal/logger"
)

const (
	DefaultTimeout    = 5 * time.Minute
	DefaultMaxRetries = 3
	UserAgent         = "nba-schedule/1.0 (github.com/pfrederiksen/nba-schedule)"
)

// ErrEmptyResponse is returned when the model answers with no choices or no content
var ErrEmptyResponse = errors.New("empty response from model")

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion request. Nil Temperature or MaxTokens are left to the server.
type Request struct {
	Messages    []Message
	Temperature *float64
	MaxTokens   *int
}

// Usage counts tokens consumed by one or more requests
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	Requests         int `json:"requests"`
}

// Add accumulates other into u
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	u.Requests += other.Requests
}

// Response is the first choice of a completion
type Response struct {
	Content string
	Usage   Usage
}

// Config configures a Client
type Config struct {
	Provider string // "name/model"
	APIToken string
	BaseURL  string // overrides the provider default
	Headers  map[string]string

	// RequestsPerSecond paces requests; zero means unlimited
	RequestsPerSecond float64
	MaxRetries        uint64
	RetryInterval     time.Duration // initial backoff, default 1s
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Client talks to an OpenAI-compatible /chat/completions endpoint
type Client struct {
	provider      Provider
	baseURL       string
	apiToken      string
	headers       map[string]string
	http          *http.Client
	limiter       *rate.Limiter
	maxRetries    uint64
	retryInterval time.Duration
}

// New creates a client. It fails when no base URL is known for the provider.
func New(cfg Config) (*Client, error) {
	p := ParseProvider(cfg.Provider)
	if p.Model == "" {
		return nil, fmt.Errorf("provider %q has no model", cfg.Provider)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = p.DefaultBaseURL()
	}
	if baseURL == "" {
		return nil, fmt.Errorf("no base URL known for provider %q, set one explicitly", p.Name)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	retryInterval := cfg.RetryInterval
	if retryInterval == 0 {
		retryInterval = time.Second
	}

	return &Client{
		provider:      p,
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiToken:      cfg.APIToken,
		headers:       cfg.Headers,
		http:          httpClient,
		limiter:       rate.NewLimiter(limit, 1),
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
	}, nil
}

// Provider returns the parsed provider
func (c *Client) Provider() Provider {
	return c.provider
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// statusError carries a non-2xx HTTP response
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d: %s", e.code, e.body)
}

// Chat sends a chat completion request, retrying transient failures.
func (c *Client) Chat(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.provider.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)

	var resp *Response
	attempt := 0
	op := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		r, err := c.do(ctx, body)
		if err == nil {
			resp = r
			return nil
		}

		var se *statusError
		if errors.As(err, &se) && se.code != http.StatusTooManyRequests && se.code < 500 {
			return backoff.Permanent(err)
		}
		if errors.Is(err, ErrEmptyResponse) {
			return backoff.Permanent(err)
		}

		logger.Debug("LLM request failed, retrying", logger.Fields{
			"provider": c.provider.String(),
			"attempt":  attempt,
			"error":    err.Error(),
		})
		return err
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	logger.IncrCounter("llm.requests")
	return resp, nil
}

func (c *Client) do(ctx context.Context, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", UserAgent)
	if c.apiToken != "" && !c.provider.IsLocal() {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close() // nolint:errcheck

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &statusError{code: httpResp.StatusCode, body: truncate(string(data), 200)}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("model error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	usage := parsed.Usage
	usage.Requests = 1
	return &Response{
		Content: parsed.Choices[0].Message.Content,
		Usage:   usage,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
