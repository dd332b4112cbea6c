package builtin

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/dispatchd/dispatchd/internal/capability"
)

func gitCommandCapability(t *testing.T, dir string) *capability.CommandCapability {
	t.Helper()
	return capability.NewCommandCapability(dir, []capability.AllowedCommand{
		{Name: "git", AllowedFlags: []string{"--short", "-n"}},
	})
}

func initGitRepo(t *testing.T, dir string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v: %s", args, err, out)
		}
	}
	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
}

func TestGitStatusTool_CleanRepo(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)

	gt := NewGitStatusTool(gitCommandCapability(t, dir))
	result, err := gt.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Errorf("unexpected tool error: %s", result.Error)
	}
}

func TestGitLogTool_EmptyRepo(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)

	gt := NewGitLogTool(gitCommandCapability(t, dir))
	result, err := gt.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// An empty repo with no commits yet makes "git log" exit non-zero;
	// that surfaces as a ToolResult.Error, not a Go error.
	if result.Error == "" && !strings.Contains(result.Output, "(no output)") {
		t.Logf("git log on empty repo returned: %+v", result)
	}
}

func TestGitDiffTool_NoChanges(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)

	gt := NewGitDiffTool(gitCommandCapability(t, dir))
	result, err := gt.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Errorf("unexpected tool error: %s", result.Error)
	}
	if result.Output != "(no output)" {
		t.Errorf("expected no output for clean diff, got: %q", result.Output)
	}
}

func TestGitStatusTool_DisallowedCommand(t *testing.T) {
	dir := t.TempDir()
	// Capability with no allowlist entries at all.
	cc := capability.NewCommandCapability(dir, nil)
	gt := NewGitStatusTool(cc)
	result, err := gt.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" {
		t.Error("expected error when git is not allowlisted")
	}
}
