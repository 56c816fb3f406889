// Package llm is a small client for OpenAI-compatible chat completion endpoints.
//
// Providers are named "<provider>/<model>", e.g. "ollama/deepseek-r1:14b" or
// "openai/gpt-4o-mini". Known providers get a default base URL; any other endpoint
// can be used by setting Config.BaseURL.
//
// Requests are paced by a token-bucket limiter and retried with exponential backoff
// on transport errors, 429 and 5xx responses.
package llm
