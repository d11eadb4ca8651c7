// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the chat-completion client shared by the agents of a team.
// Client is the seam the conversation engine depends on; OpenAIClient talks
// to any OpenAI-compatible endpoint (OpenRouter by default).
package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/pdiddy/survey-engine/internal/tool"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// ErrMissingAPIKey is returned by the first model call when no API key was
// available at construction time.
var ErrMissingAPIKey = errors.New("missing model API key")

// Role is the author role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model request to invoke a tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is one chat message sent to or received from the model.
type Message struct {
	Role Role `json:"role"`

	// Name optionally identifies the participant that wrote the message.
	Name string `json:"name,omitempty"`

	Content string `json:"content"`

	// ToolCalls is set on assistant messages that request tool invocations.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool message to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// Request is one chat completion request.
type Request struct {
	Messages []Message
	Tools    []tool.Declaration
}

// Usage reports token counts for one call.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Response is the model's reply to a Request.
type Response struct {
	Message      Message
	FinishReason string
	Usage        Usage
}

// Client sends chat completion requests.
type Client interface {
	Chat(ctx context.Context, req Request) (Response, error)
	Info() types.ModelInfo
}
