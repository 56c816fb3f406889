package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, provider, url string) *Client {
	t.Helper()
	c, err := New(Config{
		Provider:      provider,
		APIToken:      "secret",
		BaseURL:       url,
		Headers:       map[string]string{"X-Test": "yes"},
		RetryInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestChat(t *testing.T) {
	var gotBody chatCompletionRequest
	var gotAuth, gotHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotHeader = r.Header.Get("X-Test")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[]"}}],"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`)) // nolint:errcheck
	}))
	defer server.Close()

	c := newTestClient(t, "openai/gpt-4o-mini", server.URL+"/")

	temp := 0.0
	maxTokens := 2000
	resp, err := c.Chat(context.Background(), Request{
		Messages:    []Message{{Role: "user", Content: "hi"}},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if resp.Content != "[]" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 12 || resp.Usage.Requests != 1 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if gotBody.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotBody.Model)
	}
	if gotBody.Temperature == nil || *gotBody.Temperature != 0 {
		t.Error("temperature 0 should be sent explicitly")
	}
	if gotBody.MaxTokens == nil || *gotBody.MaxTokens != 2000 {
		t.Error("max_tokens should be 2000")
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotHeader != "yes" {
		t.Errorf("X-Test = %q", gotHeader)
	}
}

func TestChat_OllamaSkipsToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`)) // nolint:errcheck
	}))
	defer server.Close()

	c := newTestClient(t, "ollama/deepseek-r1:14b", server.URL)
	if _, err := c.Chat(context.Background(), Request{}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want none for ollama", gotAuth)
	}
}

func TestChat_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`)) // nolint:errcheck
	}))
	defer server.Close()

	c := newTestClient(t, "openai/gpt-4o-mini", server.URL)
	resp, err := c.Chat(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("server called %d times, want 3", calls)
	}
}

func TestChat_PermanentErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"bad request", http.StatusBadRequest, `{"error":"nope"}`, nil, "400"},
		{"unauthorized", http.StatusUnauthorized, `denied`, nil, "401"},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrEmptyResponse, ""},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, ErrEmptyResponse, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) // nolint:errcheck
			}))
			defer server.Close()

			c := newTestClient(t, "openai/gpt-4o-mini", server.URL)
			_, err := c.Chat(context.Background(), Request{})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to mention %s", err, tt.wantMsg)
			}
			if atomic.LoadInt32(&calls) != 1 {
				t.Errorf("server called %d times, want 1 (no retry)", calls)
			}
		})
	}
}

func TestNew_UnknownProviderNeedsBaseURL(t *testing.T) {
	if _, err := New(Config{Provider: "acme/model"}); err == nil {
		t.Error("expected error for unknown provider without base URL")
	}
	if _, err := New(Config{Provider: "ollama/"}); err == nil {
		t.Error("expected error for provider without model")
	}
	if _, err := New(Config{Provider: "acme/model", BaseURL: "http://localhost:1"}); err != nil {
		t.Errorf("New() with base URL error = %v", err)
	}
}

func TestUsage_Add(t *testing.T) {
	var u Usage
	u.Add(Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3, Requests: 1})
	u.Add(Usage{PromptTokens: 4, CompletionTokens: 5, TotalTokens: 9, Requests: 1})

	if u.PromptTokens != 5 || u.CompletionTokens != 7 || u.TotalTokens != 12 || u.Requests != 2 {
		t.Errorf("Usage = %+v", u)
	}
}
