package llm

import (
	"context"
	"encoding/json"
)

// Provider is the single seam between the service layer and a hosted model.
type Provider interface {
	// Generate sends a prompt and returns the model output. When req.Schema
	// is set the provider asks for JSON and validates it before returning.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation history, oldest first. The last entry is
	// the turn being answered.
	Messages []Message

	// Schema requests structured JSON output. Nil means free text.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema and keys the compiled-schema cache.
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	// Content is validated JSON when a Schema was requested, raw text otherwise.
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // "end" | "max_tokens"
}

// Text returns Content as a string.
func (r *Response) Text() string {
	return string(r.Content)
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
