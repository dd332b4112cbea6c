package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dispatchd/dispatchd/internal/capability"
	"github.com/dispatchd/dispatchd/internal/tool"
)

// gitCommand is shared plumbing for the three read-only git tools
// (git_status, git_diff, git_log), each backed by a CommandCapability
// restricted to exactly the git subcommand it names — never a shell.
type gitCommand struct {
	name    string
	desc    string
	subcmd  string
	args    []string
	cmds    *capability.CommandCapability
}

func (g *gitCommand) Name() string             { return g.name }
func (g *gitCommand) Description() string      { return g.desc }
func (g *gitCommand) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (g *gitCommand) Init(_ context.Context) error { return nil }
func (g *gitCommand) Close() error                 { return nil }

func (g *gitCommand) Execute(ctx context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	argv := append([]string{"git", g.subcmd}, g.args...)
	result, err := g.cmds.RunAllowed(ctx, argv)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	if result.ExitCode != 0 {
		return tool.ToolResult{Error: fmt.Sprintf("git %s exited %d: %s", g.subcmd, result.ExitCode, result.Stderr)}, nil
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

// NewGitStatusTool reports the working tree's status (git status --short).
func NewGitStatusTool(cmds *capability.CommandCapability) tool.Tool {
	return &gitCommand{
		name:   "git_status",
		desc:   "Shows the working tree status (git status --short).",
		subcmd: "status",
		args:   []string{"--short"},
		cmds:   cmds,
	}
}

// NewGitDiffTool shows unstaged changes (git diff).
func NewGitDiffTool(cmds *capability.CommandCapability) tool.Tool {
	return &gitCommand{
		name:   "git_diff",
		desc:   "Shows unstaged changes in the working tree (git diff).",
		subcmd: "diff",
		cmds:   cmds,
	}
}

// NewGitLogTool shows recent commit history (git log, last 20, one line each).
func NewGitLogTool(cmds *capability.CommandCapability) tool.Tool {
	return &gitCommand{
		name:   "git_log",
		desc:   "Shows recent commit history (last 20 commits, one line each).",
		subcmd: "log",
		args:   []string{"--oneline", "-n", "20"},
		cmds:   cmds,
	}
}
