// remember/recall persist a single key-value document via
// storage.WriteJsonAtomic/ReadJson rather than an append-only log, since
// recall needs the full current set on every call, not a replay of history.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dispatchd/dispatchd/internal/storage"
	"github.com/dispatchd/dispatchd/internal/tool"
)

type memoryDoc struct {
	Entries map[string]string `json:"entries"`
}

// ── remember ──

type RememberTool struct {
	path string
	mu   *sync.Mutex
}

func NewRememberTool(path string) *RememberTool {
	return &RememberTool{path: path, mu: storage.Lock(path)}
}

func (t *RememberTool) Name() string        { return "remember" }
func (t *RememberTool) Description() string { return "Stores a key/value fact in persistent memory." }

func (t *RememberTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "key", Type: "string", Description: "Memory key", Required: true},
		tool.SchemaParam{Name: "value", Type: "string", Description: "Value to remember", Required: true},
	)
}

func (t *RememberTool) Init(_ context.Context) error { return nil }
func (t *RememberTool) Close() error                 { return nil }

type rememberArgs struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (t *RememberTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a rememberArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to parse arguments: %v", err)}, nil
	}
	key := strings.TrimSpace(a.Key)
	if key == "" {
		return tool.ToolResult{Error: "key must not be empty"}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var doc memoryDoc
	if err := storage.ReadJson(t.path, &doc); err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]string)
	}
	doc.Entries[key] = a.Value

	if err := storage.WriteJsonAtomic(t.path, doc); err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: fmt.Sprintf("remembered %q", key)}, nil
}

// ── recall ──

type RecallTool struct {
	path string
	mu   *sync.Mutex
}

func NewRecallTool(path string) *RecallTool {
	return &RecallTool{path: path, mu: storage.Lock(path)}
}

func (t *RecallTool) Name() string        { return "recall" }
func (t *RecallTool) Description() string { return "Recalls a previously remembered fact by key, or lists all keys if none given." }

func (t *RecallTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "key", Type: "string", Description: "Memory key (omit to list all keys)", Required: false},
	)
}

func (t *RecallTool) Init(_ context.Context) error { return nil }
func (t *RecallTool) Close() error                 { return nil }

type recallArgs struct {
	Key string `json:"key"`
}

func (t *RecallTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a recallArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return tool.ToolResult{Error: fmt.Sprintf("failed to parse arguments: %v", err)}, nil
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var doc memoryDoc
	if err := storage.ReadJson(t.path, &doc); err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}

	key := strings.TrimSpace(a.Key)
	if key == "" {
		if len(doc.Entries) == 0 {
			return tool.ToolResult{Output: "(no memories stored)"}, nil
		}
		keys := make([]string, 0, len(doc.Entries))
		for k := range doc.Entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return tool.ToolResult{Output: strings.Join(keys, "\n")}, nil
	}

	value, ok := doc.Entries[key]
	if !ok {
		return tool.ToolResult{Error: fmt.Sprintf("no memory stored for key %q", key)}, nil
	}
	return tool.ToolResult{Output: value}, nil
}
