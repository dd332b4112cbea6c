package executor

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/dispatchd/dispatchd/internal/agentmodel"
	"github.com/dispatchd/dispatchd/internal/audit"
	"github.com/dispatchd/dispatchd/internal/config"
	"github.com/dispatchd/dispatchd/internal/dispatcherr"
	"github.com/dispatchd/dispatchd/internal/errkind"
	"github.com/dispatchd/dispatchd/internal/tool"
)

// echoTool is a minimal tool.Tool used to exercise the pipeline without
// depending on internal/tool/builtin.
type echoTool struct {
	name   string
	schema json.RawMessage
	panics bool
}

func (e *echoTool) Name() string                 { return e.name }
func (e *echoTool) Description() string          { return "echoes its input" }
func (e *echoTool) InputSchema() json.RawMessage { return e.schema }
func (e *echoTool) Init(context.Context) error   { return nil }
func (e *echoTool) Close() error                 { return nil }
func (e *echoTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	if e.panics {
		panic("boom")
	}
	return tool.ToolResult{Output: string(args)}, nil
}

func newTestExecutor(t *testing.T) (*Executor, *tool.Registry) {
	t.Helper()
	reg := tool.NewRegistry()
	reg.Register(&echoTool{name: "echo_tool", schema: tool.BuildSchema(tool.SchemaParam{Name: "x", Type: "string", Required: true})})
	reg.Register(&echoTool{name: "calculate", schema: nil}) // stand-in safe tool
	reg.Register(&echoTool{name: "panic_tool", schema: nil, panics: true})

	dir := t.TempDir()
	logger := audit.NewLogger(filepath.Join(dir, "audit.jsonl"))
	return New(reg, logger), reg
}

func TestExecute_ToolNotFound(t *testing.T) {
	ex, _ := newTestExecutor(t)
	sys := agentmodel.NewSystemAgent("sys", "", "", nil)
	result := ex.Execute(context.Background(), "nonexistent", nil, ExecutionContext{Agent: sys})
	if result.Error == "" {
		t.Fatal("expected error for missing tool")
	}
}

func TestExecute_SystemAgentBypassesAllowlist(t *testing.T) {
	ex, _ := newTestExecutor(t)
	sys := agentmodel.NewSystemAgent("sys", "", "", nil)
	result := ex.Execute(context.Background(), "echo_tool", json.RawMessage(`{"x":"hi"}`), ExecutionContext{Agent: sys})
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
}

func TestExecute_UserAgentDeniedWithoutAllowlist(t *testing.T) {
	ex, _ := newTestExecutor(t)
	usr := agentmodel.NewUserAgent("helper", "", "", []string{"other_tool"})
	result := ex.Execute(context.Background(), "echo_tool", json.RawMessage(`{"x":"hi"}`), ExecutionContext{Agent: usr})
	if result.Error == "" {
		t.Fatal("expected DENIED_AGENT_TOOL")
	}
}

func TestExecute_UserAgentAllowedTool(t *testing.T) {
	ex, _ := newTestExecutor(t)
	usr := agentmodel.NewUserAgent("helper", "", "", []string{"echo_tool"})
	result := ex.Execute(context.Background(), "echo_tool", json.RawMessage(`{"x":"hi"}`), ExecutionContext{Agent: usr})
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
}

func TestExecute_NoAgentSafeToolAllowed(t *testing.T) {
	ex, _ := newTestExecutor(t)
	result := ex.Execute(context.Background(), "calculate", nil, ExecutionContext{})
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
}

func TestExecute_NoAgentUnsafeToolDenied(t *testing.T) {
	ex, _ := newTestExecutor(t)
	result := ex.Execute(context.Background(), "echo_tool", json.RawMessage(`{"x":"hi"}`), ExecutionContext{})
	if result.Error == "" {
		t.Fatal("expected DENIED_NO_AGENT")
	}
}

func TestExecute_DeniedByPolicy(t *testing.T) {
	ex, _ := newTestExecutor(t)
	sys := agentmodel.NewSystemAgent("sys", "", "", nil)
	perms := &config.PermissionSet{DenyTools: []string{"echo_tool"}}
	result := ex.Execute(context.Background(), "echo_tool", json.RawMessage(`{"x":"hi"}`), ExecutionContext{Agent: sys, Permissions: perms})
	if result.Error == "" {
		t.Fatal("expected DENIED_BY_POLICY")
	}
}

func TestExecute_ValidationFailure(t *testing.T) {
	ex, _ := newTestExecutor(t)
	sys := agentmodel.NewSystemAgent("sys", "", "", nil)
	result := ex.Execute(context.Background(), "echo_tool", json.RawMessage(`{}`), ExecutionContext{Agent: sys})
	if result.Error == "" {
		t.Fatal("expected validation error for missing required field")
	}
}

func TestExecute_ConfirmationRequired(t *testing.T) {
	ex, _ := newTestExecutor(t)
	sys := agentmodel.NewSystemAgent("sys", "", "", nil)
	perms := &config.PermissionSet{RequireConfirmationFor: []string{"echo_tool"}}

	result := ex.Execute(context.Background(), "echo_tool", json.RawMessage(`{"x":"hi"}`), ExecutionContext{Agent: sys, Permissions: perms})
	if result.Error == "" {
		t.Fatal("expected CONFIRMATION_REQUIRED")
	}

	result = ex.Execute(context.Background(), "echo_tool", json.RawMessage(`{"x":"hi"}`), ExecutionContext{Agent: sys, Permissions: perms, ConfirmedTool: "echo_tool"})
	if result.Error != "" {
		t.Fatalf("expected confirmed call to succeed, got: %s", result.Error)
	}
}

func TestExecute_HandlerPanicBecomesExecError(t *testing.T) {
	ex, _ := newTestExecutor(t)
	sys := agentmodel.NewSystemAgent("sys", "", "", nil)
	result := ex.Execute(context.Background(), "panic_tool", nil, ExecutionContext{Agent: sys})
	if result.Error == "" {
		t.Fatal("expected panic to be recovered into an error result")
	}
}

func TestExecute_AuditTrailRecordsEveryCall(t *testing.T) {
	ex, _ := newTestExecutor(t)
	sys := agentmodel.NewSystemAgent("sys", "", "", nil)

	ex.Execute(context.Background(), "echo_tool", json.RawMessage(`{"x":"hi"}`), ExecutionContext{Agent: sys, CorrelationID: "c1"})
	ex.Execute(context.Background(), "nonexistent", nil, ExecutionContext{Agent: sys, CorrelationID: "c2"})

	entries, err := ex.auditLog.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d audit entries, want 2", len(entries))
	}
	if !entries[0].OK || entries[0].CorrelationID != "c1" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].OK || entries[1].CorrelationID != "c2" {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestExecute_DispatcherrKindSurfacesInResult(t *testing.T) {
	reg := tool.NewRegistry()
	reg.Register(&kindedTool{})
	dir := t.TempDir()
	logger := audit.NewLogger(filepath.Join(dir, "audit.jsonl"))
	ex := New(reg, logger)

	sys := agentmodel.NewSystemAgent("sys", "", "", nil)
	result := ex.Execute(context.Background(), "kinded_tool", nil, ExecutionContext{Agent: sys})
	if result.Error != "deliberate failure" {
		t.Errorf("Error = %q, want %q", result.Error, "deliberate failure")
	}
}

// kindedTool returns a *dispatcherr.Error from Execute to verify the
// executor surfaces its Message (not its full Error() string) in the
// ToolResult.
type kindedTool struct{}

func (kindedTool) Name() string                 { return "kinded_tool" }
func (kindedTool) Description() string          { return "" }
func (kindedTool) InputSchema() json.RawMessage { return nil }
func (kindedTool) Init(context.Context) error   { return nil }
func (kindedTool) Close() error                 { return nil }
func (kindedTool) Execute(context.Context, json.RawMessage) (tool.ToolResult, error) {
	return tool.ToolResult{}, dispatcherr.New(errkind.ExecError, "deliberate failure")
}
