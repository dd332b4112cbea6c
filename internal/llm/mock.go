package llm

import (
	"context"
	"fmt"
)

// MockProvider is a deterministic LLMProvider keyed by the last user
// message's exact text, for tests and evals that need reproducible
// routing behavior without a real endpoint. It is a real package-level
// type rather than a test-local fixture since callers outside this
// package's own tests also need a deterministic provider.
type MockProvider struct {
	// Responses maps an exact last-user-message string to the reply that
	// CallLLM/CallLLMStream should return for it.
	Responses map[string]Message

	// ToolResponses maps an exact last-user-message string to the message
	// CallLLMWithTools should return for it (normally containing ToolCalls).
	ToolResponses map[string]Message

	// Default is returned when no entry in Responses matches.
	Default Message

	// ToolCallingEnabled controls IsToolCallingEnabled.
	ToolCallingEnabled bool
}

// NewMockProvider constructs an empty MockProvider; populate Responses,
// ToolResponses, and Default directly.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Responses:     make(map[string]Message),
		ToolResponses: make(map[string]Message),
		Default: Message{
			Role:    RoleAssistant,
			Content: "mock: no canned response for this input",
		},
	}
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func (m *MockProvider) CallLLM(_ context.Context, messages []Message) (Message, error) {
	if len(messages) == 0 {
		return Message{}, fmt.Errorf("no messages to send")
	}
	key := lastUserContent(messages)
	if resp, ok := m.Responses[key]; ok {
		return resp, nil
	}
	return m.Default, nil
}

func (m *MockProvider) CallLLMStream(ctx context.Context, messages []Message, onChunk StreamCallback) (Message, error) {
	resp, err := m.CallLLM(ctx, messages)
	if err != nil {
		return Message{}, err
	}
	if onChunk != nil && resp.Content != "" {
		onChunk(resp.Content)
	}
	return resp, nil
}

func (m *MockProvider) CallLLMWithTools(_ context.Context, messages []Message, _ []ToolDefinition) (Message, error) {
	if len(messages) == 0 {
		return Message{}, fmt.Errorf("no messages to send")
	}
	key := lastUserContent(messages)
	if resp, ok := m.ToolResponses[key]; ok {
		return resp, nil
	}
	return m.Default, nil
}

func (m *MockProvider) IsToolCallingEnabled() bool { return m.ToolCallingEnabled }

func (m *MockProvider) GetName() string { return "mock" }
