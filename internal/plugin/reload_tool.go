package plugin

import (
	"context"
	"encoding/json"

	"github.com/dispatchd/dispatchd/internal/tool"
)

// ReloadTool implements tool.Tool and exposes the "plugin_reload" command.
// When invoked, it triggers a diff-based hot reload of plugins.json: new
// servers are scanned (if stdio Python) then connected and registered;
// removed servers have their tools unregistered and connections closed;
// unchanged servers are left untouched. Takes no input and returns a
// human-readable summary.
type ReloadTool struct {
	manager  *Manager
	registry *tool.Registry
}

// NewReloadTool creates a ReloadTool wired to the given manager and registry.
func NewReloadTool(manager *Manager, registry *tool.Registry) *ReloadTool {
	return &ReloadTool{manager: manager, registry: registry}
}

func (t *ReloadTool) Name() string { return "plugin_reload" }

func (t *ReloadTool) Description() string {
	return "Reloads the plugin server configuration from plugins.json. " +
		"Connects new servers and registers their tools, disconnects removed servers and unregisters theirs; unchanged servers are left as they are. " +
		"New stdio Python servers are security-scanned before activation. " +
		"Returns a summary of changes made."
}

func (t *ReloadTool) InputSchema() json.RawMessage {
	return tool.BuildSchema()
}

func (t *ReloadTool) Execute(ctx context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	summary, err := t.manager.Reload(ctx, t.registry)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: summary}, nil
}

func (t *ReloadTool) Init(_ context.Context) error { return nil }
func (t *ReloadTool) Close() error                 { return nil }
