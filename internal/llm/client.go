// Package llm provides LLM client interfaces and implementations for reply
// generation in the development server.
package llm

import (
	"context"
	"fmt"
)

// ChatMessage is one conversation turn as presented to a provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a completion request. System carries the
// persona prompt and is prepended before the conversation turns.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is the provider's reply plus usage accounting.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client generates completions. Implementations are safe for concurrent use.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider selects an LLM backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderCanned    Provider = "canned"
)

// NewClient builds the client for a provider. The canned provider ignores
// the API key.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderCanned:
		return NewCannedClient(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
