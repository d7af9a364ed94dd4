// Package llm is the collaborator boundary for language-model calls. The
// pipeline treats every model response as untrusted input: callers parse it
// with ParseJSONResponse and validate the result against the artifact
// contracts before it crosses a stage boundary.
package llm

import "context"

// Client is the provider-agnostic chat interface the pipeline depends on.
// Implementations must be safe for concurrent use.
type Client interface {
	// Chat sends a prompt and returns the raw response text.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// IsConfigured reports whether the client has usable credentials.
	IsConfigured() bool
}

// ChatRequest is a high-level request to the model.
type ChatRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  *float64 // override default temperature
	MaxTokens    *int     // override default max tokens
	Model        *string  // override default model
}

// ChatResponse is the model's reply.
type ChatResponse struct {
	Content string
	Usage   Usage
}

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
