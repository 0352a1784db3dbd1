// Package chat defines the chat-completion port used to pick a recommendation.
package chat

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a function the model may ask to call.
// Parameters is a JSON Schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a function invocation requested by the model.
// Arguments is the raw JSON text the model produced, which may be malformed.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Request is a single completion request.
type Request struct {
	Messages    []Message
	Tools       []Tool
	Temperature float64
}

// Response carries the assistant's text and any tool calls. Content may be empty.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Model is a chat-completion backend.
type Model interface {
	Complete(ctx context.Context, req Request) (Response, error)
	ModelName() string
}
