package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dispatchd/dispatchd/internal/tool"
)

// callTimeout caps a single plugin tool call so that a hung plugin server
// fails quickly and returns control to the router/executor.
const callTimeout = 60 * time.Second

// ToolAdapter bridges a plugin server's tool to the tool.Tool interface,
// making it callable through the same Executor path as a built-in.
//
// Naming convention: plugin_<serverName>__<toolName> (double underscore
// separator, unambiguous since neither component may itself contain one).
type ToolAdapter struct {
	serverName string
	info       ToolInfo
	// client is the shared persistent connection. For per_call lifecycle it
	// is nil — Execute creates a fresh Client per invocation using cfg.
	client    *Client
	cfg       ServerConfig
	lifecycle string // "persistent" (default) | "per_call"
}

// NewToolAdapter creates an adapter for a single plugin tool. cfg is stored
// so Execute can rebuild a transient connection for per_call servers; for
// persistent servers client must be non-nil.
func NewToolAdapter(serverName string, info ToolInfo, client *Client, cfg ServerConfig) *ToolAdapter {
	lc := cfg.Lifecycle
	if lc == "" {
		lc = "persistent"
	}
	return &ToolAdapter{
		serverName: serverName,
		info:       info,
		client:     client,
		cfg:        cfg,
		lifecycle:  lc,
	}
}

// Name returns the fully-qualified tool name: plugin_<server>__<tool>.
func (a *ToolAdapter) Name() string {
	return fmt.Sprintf("plugin_%s__%s", a.serverName, a.info.Name)
}

func (a *ToolAdapter) Description() string { return a.info.Description }

func (a *ToolAdapter) InputSchema() json.RawMessage {
	if len(a.info.InputSchema) == 0 {
		return tool.BuildSchema()
	}
	return a.info.InputSchema
}

// Execute deserialises the JSON args and delegates to the plugin server.
// Infrastructure errors and plugin tool-level errors are both returned as
// a ToolResult.Error (nil Go error) — handlers never throw.
func (a *ToolAdapter) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var params map[string]any
	if len(args) > 0 && string(args) != "null" {
		if err := json.Unmarshal(args, &params); err != nil {
			return tool.ToolResult{
				Error: fmt.Sprintf("plugin adapter: parse args for %q: %v", a.Name(), err),
			}, nil
		}
	}

	if a.lifecycle == "per_call" {
		return a.executePerCall(ctx, params)
	}
	return a.executePersistent(ctx, params)
}

func (a *ToolAdapter) executePersistent(ctx context.Context, params map[string]any) (tool.ToolResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	text, err := a.client.CallTool(callCtx, a.info.Name, params)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: text}, nil
}

// executePerCall creates an ephemeral Client, connects, calls the tool,
// then closes the connection so no residual process is left running.
func (a *ToolAdapter) executePerCall(ctx context.Context, params map[string]any) (tool.ToolResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	c := NewClient(a.cfg)
	if err := c.Connect(callCtx); err != nil {
		return tool.ToolResult{
			Error: fmt.Sprintf("plugin per_call: connect to %q: %v", a.cfg.Name, err),
		}, nil
	}
	defer c.Close()

	text, err := c.CallTool(callCtx, a.info.Name, params)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: text}, nil
}

// Init satisfies tool.Tool; connection lifecycle is managed by Manager.
func (a *ToolAdapter) Init(_ context.Context) error { return nil }

// Close satisfies tool.Tool; connection lifecycle is managed by Manager.
func (a *ToolAdapter) Close() error { return nil }
