package llm

import (
	"context"
	"encoding/json"
)

// Message represents a chat message for LLM communication.
type Message struct {
	Role             string `json:"role"`                         // "system", "user", "assistant", "tool"
	Content          string `json:"content"`                      // The message text
	ReasoningContent string `json:"reasoning_content,omitempty"`  // Native thinking output (e.g. DeepSeek-R1)

	// Tool-calling fields (role=assistant and role=tool only).
	ToolCallID string     `json:"tool_call_id,omitempty"` // role=tool: the ID this result answers
	Name       string     `json:"name,omitempty"`         // role=tool: the tool name that produced the result
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // role=assistant: calls the model requested
}

// ToolCall is one function-call request emitted by an assistant message.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition is the wire shape a provider needs to advertise a callable
// tool: name, description, and a JSON Schema for its arguments. Built from
// tool.Tool.InputSchema() by the router, not by this package.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// StreamCallback is invoked for each chunk of streamed text.
// Implementations should be lightweight; heavy work should be deferred.
type StreamCallback func(chunk string)

// LLMProvider defines the interface for all LLM implementations.
// Any OpenAI-compatible endpoint (litellm, Ollama, Azure, vLLM, etc.)
// can be used by implementing this interface.
type LLMProvider interface {
	// CallLLM sends messages to the LLM and returns the complete response.
	CallLLM(ctx context.Context, messages []Message) (Message, error)

	// CallLLMStream sends messages and streams the response token-by-token.
	// Each chunk of text triggers the onChunk callback.
	// Returns the full assembled message once streaming finishes.
	// If the provider does not support streaming, it may fall back to CallLLM.
	CallLLMStream(ctx context.Context, messages []Message, onChunk StreamCallback) (Message, error)

	// GetName returns the provider name/identifier.
	GetName() string
}

// ToolCallingProvider is implemented by providers that support native
// Function Calling (the Router's LLM-fallback stage requires this to offer
// tools at all; providers that don't implement it are only ever used for
// plain chat replies).
type ToolCallingProvider interface {
	LLMProvider

	// CallLLMWithTools sends messages plus tool definitions and returns
	// either a tool-call request or a plain text reply, never both.
	CallLLMWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, error)

	// IsToolCallingEnabled reports whether Function Calling is active for
	// this provider instance (a provider may implement the interface but
	// have tool calling turned off by configuration).
	IsToolCallingEnabled() bool
}

// Role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)
