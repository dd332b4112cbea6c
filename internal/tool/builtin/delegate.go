// Each delegate_to_<agent> tool is a thin signal consumed by the router,
// not a tool that performs work itself — calling it means "hand this task
// to that agent", so Execute only validates and echoes the task text back
// for the router to act on.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dispatchd/dispatchd/internal/tool"
)

// DelegateTool represents a delegate_to_<agent> tool. Its name encodes the
// target agent directly, per the concrete scenario "delegate to coder
// implement pagination" -> ToolCall(delegate_to_coder, {task:"..."}).
type DelegateTool struct {
	targetAgent string
	name        string
}

// NewDelegateTool builds a delegate_to_<targetAgentName> tool.
func NewDelegateTool(targetAgentName string) *DelegateTool {
	return &DelegateTool{
		targetAgent: targetAgentName,
		name:        "delegate_to_" + targetAgentName,
	}
}

func (t *DelegateTool) Name() string { return t.name }
func (t *DelegateTool) Description() string {
	return fmt.Sprintf("Delegates a task to the %q agent.", t.targetAgent)
}

// TargetAgent returns the agent name this tool delegates to, so the router
// can dispatch without re-parsing the tool name.
func (t *DelegateTool) TargetAgent() string { return t.targetAgent }

func (t *DelegateTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "task", Type: "string", Description: "Task description to hand off", Required: true},
	)
}

func (t *DelegateTool) Init(_ context.Context) error { return nil }
func (t *DelegateTool) Close() error                 { return nil }

func (t *DelegateTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a struct {
		Task string `json:"task"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to parse arguments: %v", err)}, nil
	}
	task := strings.TrimSpace(a.Task)
	if task == "" {
		return tool.ToolResult{Error: "task must not be empty"}, nil
	}
	return tool.ToolResult{Output: fmt.Sprintf("delegated to %s: %s", t.targetAgent, task)}, nil
}
