// shell_exec runs one of a closed enum of read-only verbs, each through
// CommandCapability as its own argv — never through "sh -c" or any other
// shell interpreter. Output is truncated past a fixed cap rather than
// buffered without bound.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dispatchd/dispatchd/internal/capability"
	"github.com/dispatchd/dispatchd/internal/tool"
)

// shellVerbs is the closed enum of read-only shell verbs this tool exposes.
var shellVerbs = []string{"ls", "pwd", "cat", "du"}

// ShellExecTool runs one of a small allowlisted set of read-only shell
// verbs against the workspace, never through a shell interpreter.
type ShellExecTool struct {
	cmds *capability.CommandCapability
}

func NewShellExecTool(cmds *capability.CommandCapability) *ShellExecTool {
	return &ShellExecTool{cmds: cmds}
}

func (t *ShellExecTool) Name() string { return "shell_exec" }
func (t *ShellExecTool) Description() string {
	return "Runs one of a fixed set of read-only shell commands (ls, pwd, cat, du) against the workspace. Never invokes a shell interpreter."
}

func (t *ShellExecTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "command", Type: "string", Description: "One of: ls, pwd, cat, du", Required: true, Enum: shellVerbs},
		tool.SchemaParam{Name: "arg", Type: "string", Description: "Optional single argument (e.g. a path for cat/ls/du)", Required: false},
	)
}

func (t *ShellExecTool) Init(_ context.Context) error { return nil }
func (t *ShellExecTool) Close() error                 { return nil }

type shellExecArgs struct {
	Command string `json:"command"`
	Arg     string `json:"arg"`
}

func (t *ShellExecTool) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a shellExecArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to parse arguments: %v", err)}, nil
	}

	allowed := false
	for _, v := range shellVerbs {
		if v == a.Command {
			allowed = true
			break
		}
	}
	if !allowed {
		return tool.ToolResult{Error: fmt.Sprintf("command %q is not one of %v", a.Command, shellVerbs)}, nil
	}

	argv := []string{a.Command}
	if a.Arg != "" {
		argv = append(argv, a.Arg)
	}

	result, err := t.cmds.RunAllowed(ctx, argv)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	if result.ExitCode != 0 {
		return tool.ToolResult{Error: fmt.Sprintf("%s exited %d: %s", a.Command, result.ExitCode, result.Stderr)}, nil
	}
	out := result.Stdout
	if out == "" {
		out = "(no output)"
	}
	if result.Truncated {
		out += "\n(output truncated)"
	}
	return tool.ToolResult{Output: out}, nil
}
